// Package plugin defines how generators and template filters extend a site build.
//
// A generator implements PageSource: it receives the loaded site through the
// PluginContext and registers extra pages or files on it. A filter implements
// FilterProvider: it contributes named functions that page templates can call.
// Both kinds are registered in a Registry and driven by the build runner.
package plugin

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitekit/internal/config"
)

// Plugin represents a sitekit plugin with metadata and validation.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, type, priority).
	Metadata() PluginMetadata

	// Validate checks if the plugin can run with the given configuration.
	Validate(cfg *config.Config) error
}

// PageSource is the generator capability: it yields generated pages and
// files by registering them on pluginCtx.Site.
type PageSource interface {
	Plugin

	Generate(ctx context.Context, pluginCtx *PluginContext) error
}

// FilterProvider contributes template-callable functions, keyed by the name
// templates use to call them.
type FilterProvider interface {
	Plugin

	Filters(cfg *config.Config) map[string]any
}

// PluginMetadata describes a plugin's identity and scheduling.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "attributes", "sitemap").
	Name string

	// Version is the semantic version (e.g., "v0.2.4").
	Version string

	Type PluginType

	// Priority orders generators; higher priorities run first.
	Priority Priority

	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	if m.Priority != "" && !m.Priority.IsValid() {
		return fmt.Errorf("invalid plugin priority: %s", m.Priority)
	}
	return nil
}

// BasePlugin provides a default Validate that accepts any configuration.
type BasePlugin struct{}

// Validate is a no-op default implementation.
func (BasePlugin) Validate(*config.Config) error {
	return nil
}
