// Package preflight holds the safety checks run before any file is rewritten.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrDirtyTree = errors.Base("working tree has uncommitted changes")
	ErrOutdated  = errors.Base("a newer release is available")
)

// Release coordinates checked for updates
const (
	ReleaseOwner = "walteh"
	ReleaseRepo  = "codemod"
)

// 🚧 Gate runs the update check and the clean tree check
type Gate struct {
	Git      GitStatuser
	Releases ReleaseClient
	// Version is the running tool version
	Version string
	Owner   string
	Repo    string
	Out     io.Writer
}

// 🏭 NewGate creates a gate backed by the git binary and the GitHub API
func NewGate(version string) *Gate {
	return &Gate{
		Git:      NewExecGit(),
		Releases: NewGitHubClient(),
		Version:  version,
		Owner:    ReleaseOwner,
		Repo:     ReleaseRepo,
		Out:      os.Stdout,
	}
}

// 🚦 Run checks for a newer release, then for a clean tree in dir
func (g *Gate) Run(ctx context.Context, dir string, force bool) error {
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Bool("force", force).Str("version", g.Version).Msg("running preflight")

	if err := g.CheckUpToDate(ctx, g.Version); err != nil {
		return err
	}
	if err := g.CheckCleanTree(ctx, dir, force); err != nil {
		return err
	}
	return nil
}

func (g *Gate) warn(format string, args ...interface{}) {
	printer := pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️", Style: pterm.Warning.Prefix.Style})
	fmt.Fprint(g.Out, printer.Sprintfln(format, args...))
}
