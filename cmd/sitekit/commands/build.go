package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitekit/internal/build"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Destination string `short:"d" help:"Override the destination directory from the configuration"`
	Workspace   string `name:"workspace" help:"Directory for temporary project checkouts (defaults to the OS temp dir)"`
	MetricsFile string `name:"metrics-file" help:"Write build metrics in Prometheus text format to this file (node-exporter textfile collector)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if b.Destination != "" {
		cfg.Destination = b.Destination
		cfg.Set("destination", b.Destination)
	}
	return RunBuild(ctx, cfg, b.Workspace, b.MetricsFile, loggerFrom(g))
}

// RunBuild builds the site once. When metricsFile is set the build metrics
// are written there, also after a failed build.
func RunBuild(ctx context.Context, cfg *config.Config, workspace, metricsFile string, logger *slog.Logger) error {
	logger.Info("Starting site build",
		slog.String("source", cfg.SourceDir()),
		slog.String("destination", cfg.DestDir()))

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if metricsFile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
	}

	runner := build.NewRunner(cfg, build.DefaultRegistry(workspace)).
		WithRecorder(recorder).
		WithLogger(logger)
	report, err := runner.Run(ctx)

	if prom != nil {
		if werr := prom.WriteTextfile(metricsFile); werr != nil {
			logger.Warn("Failed to write metrics file", logfields.Path(metricsFile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	logger.Info("Site built",
		logfields.BuildID(report.BuildID),
		slog.Int("pages", report.Pages),
		slog.Int("posts", report.Posts),
		slog.Int("files", report.Files),
		slog.Int("static_files", report.StaticFiles),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return nil
}
