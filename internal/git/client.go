package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/retry"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CloneOptions selects what to clone and where to put it inside the workspace.
type CloneOptions struct {
	URL    string
	Name   string // checkout directory name, relative to the workspace
	Branch string
	Depth  int
	Auth   *Auth
}

// Client handles Git operations
type Client struct {
	workspaceDir string
	policy       retry.Policy
}

// NewClient creates a new Git client with the specified workspace directory
func NewClient(workspaceDir string) *Client {
	return &Client{workspaceDir: workspaceDir, policy: retry.DefaultPolicy()}
}

// WithRetryPolicy sets the backoff policy for transient clone failures (fluent helper).
func (c *Client) WithRetryPolicy(p retry.Policy) *Client { c.policy = p; return c }

// EnsureWorkspace creates the workspace directory if needed.
func (c *Client) EnsureWorkspace() error {
	if err := os.MkdirAll(c.workspaceDir, 0o750); err != nil {
		return errors.FileSystemError("failed to create workspace directory").
			WithCause(err).
			WithContext("path", c.workspaceDir).
			Build()
	}
	return nil
}

// Clone clones opts.URL into <workspace>/<opts.Name>, retrying transient failures.
// The workspace directory is created when missing. It returns the checkout path.
func (c *Client) Clone(ctx context.Context, opts CloneOptions) (string, error) {
	if opts.Name == "" {
		return "", errors.ValidationError("clone requires a checkout name").WithContext("url", opts.URL).Build()
	}
	if err := c.EnsureWorkspace(); err != nil {
		return "", err
	}
	var path string
	err := c.policy.Do(ctx, func() error {
		p, err := c.cloneOnce(ctx, opts)
		path = p
		return err
	}, errors.IsRetryable, func(attempt int, delay time.Duration, err error) {
		slog.Warn("retrying git clone", logfields.Name(opts.Name), logfields.URL(opts.URL),
			slog.Int("attempt", attempt), slog.Duration("delay", delay), logfields.Error(err))
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) cloneOnce(ctx context.Context, opts CloneOptions) (string, error) {
	repoPath := filepath.Join(c.workspaceDir, opts.Name)
	slog.Debug("Cloning repository", logfields.URL(opts.URL), logfields.Name(opts.Name), slog.String("branch", opts.Branch), logfields.Path(repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{URL: opts.URL}
	if opts.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOptions.SingleBranch = true
	}
	if opts.Depth > 0 {
		cloneOptions.Depth = opts.Depth
	}
	auth, err := opts.Auth.method()
	if err != nil {
		return "", errors.ConfigError("failed to setup authentication").WithCause(err).WithContext("url", opts.URL).Build()
	}
	cloneOptions.Auth = auth

	repository, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
	if err != nil {
		return "", ClassifyGitError(err, "clone", opts.URL)
	}

	if ref, herr := repository.Head(); herr == nil {
		slog.Info("Repository cloned successfully", logfields.Name(opts.Name), logfields.URL(opts.URL), slog.String("commit", ref.Hash().String()[:8]), logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned successfully", logfields.Name(opts.Name), logfields.URL(opts.URL), logfields.Path(repoPath))
	}
	return repoPath, nil
}
