// Package commands holds the kong command implementations of the sitekit CLI.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Site configuration file" default:"_config.yml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the destination directory"`
	Init  InitCmd  `cmd:"" help:"Create a configuration file and starter layouts"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever the site source changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

func loggerFrom(g *Global) *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// loadConfig reads the site configuration, classifying failures as config errors.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.ConfigError("failed to load site configuration").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}
