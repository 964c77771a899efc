package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitekit/internal/build"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
)

const rebuildDebounce = 300 * time.Millisecond

// WatchCmd builds the site and rebuilds it on every source change.
type WatchCmd struct {
	Workspace   string `name:"workspace" help:"Directory for temporary project checkouts (defaults to the OS temp dir)"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9090"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	logger := loggerFrom(g)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if w.MetricsAddr != "" {
		prom := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
		srv := startMetricsServer(w.MetricsAddr, prom, logger)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown error", logfields.Error(err))
			}
		}()
	}

	runner := build.NewRunner(cfg, build.DefaultRegistry(w.Workspace)).
		WithRecorder(recorder).
		WithLogger(logger)
	return Watch(ctx, cfg, runner, logger)
}

// Watch runs an initial build, then rebuilds on changes below the source
// directory until ctx is done. Rebuilds run one at a time; changes arriving
// during a rebuild are coalesced into a single follow-up build.
func Watch(ctx context.Context, cfg *config.Config, runner *build.Runner, logger *slog.Logger) error {
	source := cfg.SourceDir()
	dest := cfg.DestDir()

	rebuild := func() {
		report, err := runner.Run(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) {
				return
			}
			logger.Error("Rebuild failed", logfields.Error(err))
			return
		}
		logger.Info("Site rebuilt",
			logfields.BuildID(report.BuildID),
			slog.Int("pages", report.Pages),
			logfields.DurationMS(float64(report.Duration.Milliseconds())))
	}
	rebuild()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, source, dest, logger); err != nil {
		return err
	}

	rebuildReq, trigger, stop := newDebouncer(rebuildDebounce)
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-rebuildReq:
				logger.Info("Change detected; rebuilding site")
				rebuild()
			}
		}
	}()

	logger.Info("Watching for changes", logfields.Path(source))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watch")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name, dest) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name, dest, logger)
				}
			}
			logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a channel that receives once per burst of trigger
// calls, after d passed without a new call. The channel holds at most one
// pending request.
func newDebouncer(d time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

func addDirsRecursive(w *fsnotify.Watcher, root, dest string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (isWithin(path, dest) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for events that must not trigger a rebuild:
// anything in the destination, hidden files and editor temp files.
func shouldIgnoreEvent(path, dest string) bool {
	if isWithin(path, dest) {
		return true
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func startMetricsServer(addr string, prom *metrics.PrometheusRecorder, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(prom.Registry()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	logger.Info("Serving metrics", slog.String("addr", addr))
	return srv
}
