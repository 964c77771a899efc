package projects

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/git"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	"git.home.luguber.info/inful/sitekit/internal/retry"
	"git.home.luguber.info/inful/sitekit/internal/site"
	"git.home.luguber.info/inful/sitekit/internal/workspace"
)

// PluginName is the name used in exclude_plugins and logs.
const PluginName = "projects"

// Plugin clones every published project and registers its page and zip bundle.
type Plugin struct {
	plugin.BasePlugin

	// WorkspaceBase is where per-build checkout directories are created.
	// Empty means the OS temp dir.
	WorkspaceBase string

	now func() time.Time
}

// NewPlugin creates the project page generator.
func NewPlugin(workspaceBase string) *Plugin {
	return &Plugin{WorkspaceBase: workspaceBase, now: time.Now}
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeGenerator,
		Priority:    plugin.PriorityLow,
		Description: "Project pages and zip downloads built from git repositories",
	}
}

// Generate implements plugin.PageSource.
func (p *Plugin) Generate(ctx context.Context, pc *plugin.PluginContext) error {
	files, err := Discover(pc.Site.Source)
	if err != nil || len(files) == 0 {
		return err
	}

	ws := workspace.NewManager(p.WorkspaceBase)
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			pc.Logger.Warn("Failed to clean up project workspace", logfields.Error(cerr))
		}
	}()

	checkoutDir, err := ws.CreateSubdir("checkout")
	if err != nil {
		return err
	}
	client := git.NewClient(checkoutDir).WithRetryPolicy(retry.FromConfig(pc.Config))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		proj, err := Load(pc.Site.Source, file)
		if err != nil {
			return err
		}
		logger := pc.Logger.With(logfields.Project(proj.Name))
		if !proj.Published {
			logger.Debug("Skipping unpublished project", logfields.Path(file))
			continue
		}
		if err := p.generateProject(ctx, pc.Site, client, proj, logger); err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				return ce.WithContext("project", proj.Name)
			}
			return err
		}
	}
	return nil
}

func (p *Plugin) generateProject(ctx context.Context, s *site.Site, client *git.Client, proj *Project, logger *slog.Logger) error {
	checkout, err := client.Clone(ctx, git.CloneOptions{
		URL:    proj.Repository,
		Name:   proj.Name,
		Branch: proj.Branch,
		Depth:  s.Config.ProjectCloneDepth,
		Auth:   proj.Auth,
	})
	if err != nil {
		return err
	}

	version, ok, err := Version(checkout)
	if err != nil {
		return err
	}
	if !ok {
		version = FallbackVersion(p.now())
	}

	readme, err := Readme(checkout)
	if err != nil {
		return err
	}
	content, err := readmeContent(readme)
	if err != nil {
		return err
	}

	bundle, err := Bundle(checkout)
	if err != nil {
		return err
	}

	dir := path.Join(strings.Trim(s.Config.ProjectDir, "/"), proj.Name)
	zipName := ZipName(path.Base(proj.Name), version)
	s.AddFile(dir, zipName, bundle)

	data := proj.Data
	data["download_link"] = zipName
	data["version"] = version
	if commit, err := git.HeadCommit(checkout); err == nil {
		data["commit"] = commit
	} else {
		logger.Debug("Commit of checkout unknown", logfields.Error(err))
	}
	s.AddPage(&site.Page{
		Dir:        dir,
		Name:       "index" + PageExt(readme),
		Data:       data,
		Content:    content,
		SourcePath: proj.ConfigPath,
		ModTime:    proj.ModTime,
		Raw:        true,
	})
	logger.Info("Registered project page",
		logfields.Path(dir),
		slog.String("version", version),
		slog.String("readme", filepath.Base(readme)),
		slog.Int("bundle_bytes", len(bundle)))
	return nil
}
