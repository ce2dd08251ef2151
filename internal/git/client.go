package git

import (
	"context"
	"fmt"
	"time"

	"github.com/gitsight/go-vcsurl"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/pkg/shared/config"
)

// DefaultBranch is used when the caller leaves the branch unspecified.
const DefaultBranch = "main"

// Client fetches remote repositories into local staging directories.
type Client struct {
	auth    transport.AuthMethod
	depth   int
	timeout time.Duration
	logger  hclog.Logger
}

// NewClient builds a fetch client from the git_client configuration. A
// configured access token turns into HTTP basic auth; without one the clone
// is anonymous.
func NewClient(cfg *config.Config, logger hclog.Logger) *Client {
	var auth transport.AuthMethod
	if cfg.GitClient.Token != "" {
		auth = &http.BasicAuth{Username: "x-token-auth", Password: cfg.GitClient.Token}
	}

	return &Client{
		auth:    auth,
		depth:   config.SetThen(cfg.GitClient.Depth, 1),
		timeout: config.SetThen(cfg.GitClient.Timeout, 10*time.Minute),
		logger:  logger,
	}
}

// CloneRepository performs a shallow, single-branch clone of cloneURL into
// targetFolder. Full history is never required downstream.
func (c *Client) CloneRepository(ctx context.Context, cloneURL, branch, targetFolder string) (string, error) {
	info, err := vcsurl.Parse(cloneURL)
	if err != nil {
		c.logger.Error("failed to parse VCS URL", "VCSURL", cloneURL, "error", err)
		return "", fmt.Errorf("failed to parse VCS URL: %w", err)
	}

	if branch == "" {
		branch = DefaultBranch
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("starting repository fetch", "repository", info.Name, "branch", branch, "cloneURL", cloneURL, "targetFolder", targetFolder)
	_, err = gogit.PlainCloneContext(ctx, targetFolder, false, &gogit.CloneOptions{
		Auth:          c.auth,
		URL:           cloneURL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         c.depth,
	})
	if err != nil {
		c.logger.Error("error occurred during clone", "error", err, "targetFolder", targetFolder)
		return "", fmt.Errorf("error occurred during clone: %w", err)
	}

	c.logger.Info("repository fetch completed", "repository", info.Name, "branch", branch, "targetFolder", targetFolder)
	return targetFolder, nil
}
