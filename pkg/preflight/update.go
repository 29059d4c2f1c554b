package preflight

import (
	"context"
	"os"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/mod/semver"
)

// ReleaseClient defines the GitHub API operations the update check needs
type ReleaseClient interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

// githubClientWrapper wraps the GitHub client to implement ReleaseClient
type githubClientWrapper struct {
	client *github.Client
}

// NewGitHubClient returns a ReleaseClient, authenticated when GITHUB_TOKEN is set.
func NewGitHubClient() ReleaseClient {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return &githubClientWrapper{client: client}
}

func (w *githubClientWrapper) GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error) {
	return w.client.Repositories.GetLatestRelease(ctx, owner, repo)
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// 🔄 CheckUpToDate fails with ErrOutdated when a newer release exists.
// Development builds skip the check and lookup failures only warn.
func (g *Gate) CheckUpToDate(ctx context.Context, current string) error {
	logger := zerolog.Ctx(ctx)

	cur := canonical(current)
	if cur == "" {
		logger.Debug().Str("version", current).Msg("not a release build, skipping update check")
		return nil
	}

	release, _, err := g.Releases.GetLatestRelease(ctx, g.Owner, g.Repo)
	if err != nil {
		logger.Debug().Err(err).Msg("fetching latest release")
		g.warn("could not check for updates: %v", err)
		return nil
	}

	latest := canonical(release.GetTagName())
	if latest == "" {
		logger.Debug().Str("tag", release.GetTagName()).Msg("latest release tag is not semver")
		return nil
	}

	if semver.Compare(latest, cur) > 0 {
		return errors.Errorf("%w: %s (running %s), run `go install github.com/%s/%s/cmd/codemod@latest`",
			ErrOutdated, latest, cur, g.Owner, g.Repo)
	}

	logger.Debug().Str("latest", latest).Str("current", cur).Msg("up to date")
	return nil
}
