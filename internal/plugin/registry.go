package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages plugin registration and discovery.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name already exists.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}
	switch metadata.Type {
	case PluginTypeGenerator:
		if _, ok := plugin.(PageSource); !ok {
			return fmt.Errorf("generator plugin %s does not implement PageSource", metadata.Name)
		}
	case PluginTypeFilter:
		if _, ok := plugin.(FilterProvider); !ok {
			return fmt.Errorf("filter plugin %s does not implement FilterProvider", metadata.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.plugins[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered as %s", metadata.Name, existing.Metadata())
	}
	r.plugins[metadata.Name] = plugin
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(plugins ...Plugin) *Registry {
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not found", name)
	}
	return plugin, nil
}

// Has checks if a plugin with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plugins[name]
	return ok
}

// List returns all registered plugins sorted by name.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Metadata().Name < result[j].Metadata().Name
	})
	return result
}

// ListByType returns all plugins of a specific type, sorted by name.
func (r *Registry) ListByType(pluginType PluginType) []Plugin {
	var result []Plugin
	for _, p := range r.List() {
		if p.Metadata().Type == pluginType {
			result = append(result, p)
		}
	}
	return result
}

// Generators returns the generator plugins in execution order: by priority,
// then by name.
func (r *Registry) Generators() []PageSource {
	var result []PageSource
	for _, p := range r.ListByType(PluginTypeGenerator) {
		result = append(result, p.(PageSource))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Metadata().Priority.rank() < result[j].Metadata().Priority.rank()
	})
	return result
}

// Filters returns every plugin providing template functions, sorted by name.
// Generators may provide filters alongside their pages.
func (r *Registry) Filters() []FilterProvider {
	var result []FilterProvider
	for _, p := range r.List() {
		if fp, ok := p.(FilterProvider); ok {
			result = append(result, fp)
		}
	}
	return result
}

// Unregister removes a plugin from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return fmt.Errorf("plugin %s not found", name)
	}
	delete(r.plugins, name)
	return nil
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.plugins)
}
