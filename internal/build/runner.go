package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitekit/internal/attributes"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/filters"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	"git.home.luguber.info/inful/sitekit/internal/projects"
	"git.home.luguber.info/inful/sitekit/internal/site"
	"git.home.luguber.info/inful/sitekit/internal/sitemap"
)

// DefaultRegistry returns the standard plugin set. Project checkouts are
// created below workspaceBase (the OS temp dir when empty).
func DefaultRegistry(workspaceBase string) *plugin.Registry {
	return plugin.NewRegistry().MustRegister(
		filters.NewPlugin(),
		attributes.NewPlugin(),
		projects.NewPlugin(workspaceBase),
		sitemap.NewPlugin(),
	)
}

// Runner executes builds for one configuration.
type Runner struct {
	cfg      *config.Config
	registry *plugin.Registry
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewRunner creates a runner using the plugins of registry.
func NewRunner(cfg *config.Config, registry *plugin.Registry) *Runner {
	return &Runner{
		cfg:      cfg,
		registry: registry,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
}

// WithRecorder sets the metrics recorder (fluent helper).
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithLogger sets the logger (fluent helper).
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

// Run performs one complete build. The report is returned even on failure.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{
		BuildID:     uuid.NewString(),
		StartTime:   time.Now(),
		PluginPages: map[string]int{},
	}
	logger := r.logger.With(logfields.BuildID(report.BuildID))

	defer func() {
		switch {
		case err == nil:
			report.finish(StatusSuccess)
			r.recorder.IncBuildOutcome(metrics.BuildSuccess)
		case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
			report.finish(StatusCanceled)
			r.recorder.IncBuildOutcome(metrics.BuildCanceled)
		default:
			report.finish(StatusFailed)
			r.recorder.IncBuildOutcome(metrics.BuildFailed)
		}
		r.recorder.ObserveBuildDuration(report.Duration)
	}()

	if r.cfg == nil {
		return report, errors.ConfigError("config required").Build()
	}

	s, err := site.Load(r.cfg)
	if err != nil {
		return report, err
	}
	s.Time = report.StartTime

	if err := r.validatePlugins(); err != nil {
		return report, err
	}
	funcs, err := r.collectFilters()
	if err != nil {
		return report, err
	}
	if err := r.runGenerators(ctx, s, report, logger); err != nil {
		return report, err
	}

	if err := site.NewRenderer(s, funcs.FuncMap(), logger).Render(ctx); err != nil {
		return report, err
	}
	stats, err := site.NewWriter(s, logger).Write(ctx)
	report.Pages, report.Posts, report.Files, report.StaticFiles = stats.Pages, stats.Posts, stats.Files, stats.StaticFiles
	if err != nil {
		return report, err
	}

	logger.Info("Build completed",
		slog.Int("pages", report.Pages),
		slog.Int("posts", report.Posts),
		slog.Int("files", report.Files),
		slog.Int("static_files", report.StaticFiles),
		logfields.DurationMS(float64(time.Since(report.StartTime).Milliseconds())))
	return report, nil
}

func (r *Runner) enabled(p plugin.Plugin) bool {
	return !r.cfg.PluginExcluded(p.Metadata().Name)
}

func (r *Runner) validatePlugins() error {
	for _, p := range r.registry.List() {
		if !r.enabled(p) {
			continue
		}
		if err := p.Validate(r.cfg); err != nil {
			return plugin.NewPluginError(p.Metadata().Name, "validate", err)
		}
	}
	return nil
}

func (r *Runner) collectFilters() (*plugin.FuncRegistry, error) {
	funcs := plugin.NewFuncRegistry()
	for _, fp := range r.registry.Filters() {
		if !r.enabled(fp) {
			continue
		}
		name := fp.Metadata().Name
		if err := funcs.RegisterAll(name, fp.Filters(r.cfg)); err != nil {
			return nil, plugin.NewPluginError(name, "register filters", err)
		}
	}
	return funcs, nil
}

func (r *Runner) runGenerators(ctx context.Context, s *site.Site, report *Report, logger *slog.Logger) error {
	// The plugin context adds the build ID itself.
	base := plugin.NewPluginContext(ctx, r.logger, s, report.BuildID)
	for _, g := range r.registry.Generators() {
		name := g.Metadata().Name
		if !r.enabled(g) {
			logger.Info("Plugin excluded by configuration", logfields.Plugin(name))
			report.SkippedPlugins = append(report.SkippedPlugins, name)
			r.recorder.IncPluginResult(name, metrics.ResultSkipped)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		pc := base.ForPlugin(name)
		before := len(s.Pages) + len(s.Files)
		start := time.Now()
		err := g.Generate(ctx, pc)
		elapsed := time.Since(start)
		added := len(s.Pages) + len(s.Files) - before

		r.recorder.ObservePluginDuration(name, elapsed)
		r.recorder.AddPluginPages(name, added)
		report.PluginPages[name] = added

		if err != nil {
			result := metrics.ResultFailed
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				result = metrics.ResultCanceled
			}
			r.recorder.IncPluginResult(name, result)
			pc.Logger.Error("Plugin failed", logfields.Error(err))
			return plugin.NewPluginError(name, "generate", err)
		}
		r.recorder.IncPluginResult(name, metrics.ResultSuccess)
		pc.Logger.Debug("Plugin finished", logfields.Count(added), logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	}
	return nil
}
