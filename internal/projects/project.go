// Package projects generates a download page for each project described in
// _projects: the repository is cloned, bundled as a zip and its README
// becomes the page content.
package projects

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/git"
)

// ProjectsDir holds one YAML file per project below the site source.
const ProjectsDir = "_projects"

// Project is one entry from _projects.
type Project struct {
	// Name is the path of the YAML file relative to _projects, up to its first dot.
	Name       string
	ConfigPath string
	ModTime    time.Time

	Repository string
	Branch     string
	Auth       *git.Auth
	Published  bool

	// Data holds every key of the YAML file and becomes the page data.
	Data map[string]any
}

// Discover lists the project files below source/_projects, in path order.
func Discover(source string) ([]string, error) {
	root := filepath.Join(source, ProjectsDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to scan projects").WithCause(err).WithContext("path", root).Build()
	}
	return files, nil
}

// NameFor derives the project name from its file path.
func NameFor(source, configPath string) string {
	rel, err := filepath.Rel(filepath.Join(source, ProjectsDir), configPath)
	if err != nil {
		rel = filepath.Base(configPath)
	}
	rel = filepath.ToSlash(rel)
	if i := strings.Index(rel, "."); i >= 0 {
		rel = rel[:i]
	}
	return rel
}

// Load reads one project file. Environment variables in the file are expanded,
// so credentials can be supplied through .env.
func Load(source, configPath string) (*Project, error) {
	// #nosec G304 -- configPath comes from Discover.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.FileSystemError("failed to read project file").WithCause(err).WithContext("path", configPath).Build()
	}
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, errors.FileSystemError("failed to stat project file").WithCause(err).WithContext("path", configPath).Build()
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	fields := map[string]any{}
	if err := yaml.Unmarshal(expanded, &fields); err != nil {
		return nil, errors.ValidationError("invalid project file").WithCause(err).WithContext("path", configPath).Build()
	}
	if fields == nil {
		fields = map[string]any{}
	}
	var typed struct {
		Repository string    `yaml:"repository"`
		Branch     string    `yaml:"branch"`
		Published  bool      `yaml:"published"`
		Auth       *git.Auth `yaml:"auth"`
	}
	if err := yaml.Unmarshal(expanded, &typed); err != nil {
		return nil, errors.ValidationError("invalid project file").WithCause(err).WithContext("path", configPath).Build()
	}
	// Credentials must not reach page data.
	delete(fields, "auth")

	p := &Project{
		Name:       NameFor(source, configPath),
		ConfigPath: configPath,
		ModTime:    info.ModTime(),
		Repository: typed.Repository,
		Branch:     typed.Branch,
		Auth:       typed.Auth,
		Published:  typed.Published,
		Data:       fields,
	}
	if p.Published && p.Repository == "" {
		return nil, errors.ValidationError(fmt.Sprintf("project %s has no repository", p.Name)).WithContext("path", configPath).Build()
	}
	return p, nil
}
