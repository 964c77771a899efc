package plugin

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

// PluginContext provides generators with the site being built and the
// services around it.
type PluginContext struct {
	// Context is the standard Go context for cancellation and deadlines.
	Context context.Context

	// Logger provides structured logging for plugin operations.
	Logger *slog.Logger

	Config *config.Config

	// Site is the loaded site; generators register pages and files on it.
	Site *site.Site

	// BuildID uniquely identifies this build.
	BuildID string

	// Data is a map for plugins to share data during execution.
	Data map[string]any
}

// NewPluginContext creates a new plugin context with the given services.
func NewPluginContext(ctx context.Context, logger *slog.Logger, s *site.Site, buildID string) *PluginContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginContext{
		Context: ctx,
		Logger:  logger.With(logfields.BuildID(buildID)),
		Config:  s.Config,
		Site:    s,
		BuildID: buildID,
		Data:    make(map[string]any),
	}
}

// ForPlugin returns a copy whose logger is tagged with the plugin name.
// Data is shared between the copies.
func (pc *PluginContext) ForPlugin(name string) *PluginContext {
	cp := *pc
	cp.Logger = pc.Logger.With(logfields.Plugin(name))
	return &cp
}

// GetString retrieves a string value from the plugin data map.
// Returns empty string if the key doesn't exist or is not a string.
func (pc *PluginContext) GetString(key string) string {
	if v, ok := pc.Data[key].(string); ok {
		return v
	}
	return ""
}
