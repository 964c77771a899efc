package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the site configuration file looked up by the CLI.
const DefaultFileName = "_config.yml"

// Config represents the site configuration read from _config.yml.
//
// The typed fields cover the keys sitekit itself consumes. Every key,
// including plugin-specific ones such as category_dir or tag_title_prefix,
// is also kept in Raw so plugins and templates can read them by name.
type Config struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	BaseURL     string `yaml:"baseurl"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`

	ProjectDir          string           `yaml:"project_dir"`
	ProjectCloneRetries int              `yaml:"project_clone_retries"`
	ProjectCloneBackoff RetryBackoffMode `yaml:"project_clone_backoff"`
	ProjectCloneDepth   int              `yaml:"project_clone_depth"`

	ExcludePlugins []string `yaml:"exclude_plugins"`

	// Raw holds every key from the file, after defaults were applied.
	Raw map[string]any `yaml:"-"`

	// root is the directory relative paths are resolved against.
	root string
}

// Default returns a configuration with all defaults applied, rooted at dir.
func Default(dir string) *Config {
	cfg := &Config{root: dir, Raw: map[string]any{}}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFile(filepath.Dir(configPath))

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	cfg.root = abs
	return cfg, nil
}

// Parse decodes configuration YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	cfg.Raw = raw
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "."
	}
	if c.Destination == "" {
		c.Destination = "_site"
	}
	if c.ProjectDir == "" {
		c.ProjectDir = "projects"
	}
	if c.ProjectCloneRetries < 0 {
		c.ProjectCloneRetries = 0
	}
	c.ProjectCloneBackoff = NormalizeRetryBackoff(string(c.ProjectCloneBackoff))
	if c.ProjectCloneBackoff == "" {
		c.ProjectCloneBackoff = RetryBackoffLinear
	}
	if c.Raw == nil {
		c.Raw = map[string]any{}
	}
	c.Raw["source"] = c.Source
	c.Raw["destination"] = c.Destination
	c.Raw["project_dir"] = c.ProjectDir
}

// SetRoot changes the directory Source and Destination are resolved against.
func (c *Config) SetRoot(dir string) { c.root = dir }

// SourceDir returns the absolute site source directory.
func (c *Config) SourceDir() string { return c.resolve(c.Source) }

// DestDir returns the absolute output directory.
func (c *Config) DestDir() string { return c.resolve(c.Destination) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	root := c.root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

// String returns the value stored under key as a string.
// ok is false when the key is absent or null.
func (c *Config) String(key string) (string, bool) {
	v, exists := c.Raw[key]
	if !exists || v == nil {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return fmt.Sprint(v), true
}

// StringOr returns the value stored under key, or fallback when it is absent.
func (c *Config) StringOr(key, fallback string) string {
	if s, ok := c.String(key); ok {
		return s
	}
	return fallback
}

// Set stores a raw value, mainly for programmatic configuration and tests.
func (c *Config) Set(key string, value any) {
	if c.Raw == nil {
		c.Raw = map[string]any{}
	}
	c.Raw[key] = value
}

// PluginExcluded reports whether the named plugin was disabled in exclude_plugins.
func (c *Config) PluginExcluded(name string) bool {
	for _, n := range c.ExcludePlugins {
		if n == name {
			return true
		}
	}
	return false
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := map[string]any{
		"title":                            "My Site",
		"url":                              "https://example.com",
		"baseurl":                          "",
		"destination":                      "_site",
		"category_dir":                     "categories",
		"category_title_prefix":            "Category: ",
		"category_meta_description_prefix": "Category: ",
		"tag_dir":                          "tags",
		"tag_title_prefix":                 "Tag: ",
		"tag_meta_description_prefix":      "Tag: ",
		"project_dir":                      "projects",
		"project_clone_retries":            2,
		"project_clone_backoff":            string(RetryBackoffLinear),
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- site configuration is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
