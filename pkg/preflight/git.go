package preflight

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ForceWarning is printed three times when the clean check is skipped
const ForceWarning = "WARNING: You are trying to skip git status checking, please be careful"

// 🌿 GitStatuser reports uncommitted changes in a directory
type GitStatuser interface {
	// Porcelain returns `git status --porcelain` output for dir
	Porcelain(ctx context.Context, dir string) (string, error)
}

var errNotRepository = errors.Base("not a git repository")

type execGit struct{}

// NewExecGit returns a GitStatuser backed by the git binary.
func NewExecGit() GitStatuser {
	return execGit{}
}

func (execGit) Porcelain(ctx context.Context, dir string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "not a git repository") {
			return "", errNotRepository
		}
		return "", errors.Errorf("running git status: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// 🧹 CheckCleanTree fails with ErrDirtyTree when dir has uncommitted changes.
// With force the check is skipped after a loud warning. A directory outside any
// repository counts as clean.
func (g *Gate) CheckCleanTree(ctx context.Context, dir string, force bool) error {
	logger := zerolog.Ctx(ctx)

	if force {
		for i := 0; i < 3; i++ {
			g.warn("%s", ForceWarning)
		}
		return nil
	}

	out, err := g.Git.Porcelain(ctx, dir)
	if errors.Is(err, errNotRepository) {
		logger.Debug().Str("dir", dir).Msg("not a git repository, treating as clean")
		return nil
	}
	if err != nil {
		return errors.Errorf("checking git status: %w", err)
	}

	if changes := strings.TrimSpace(out); changes != "" {
		logger.Debug().Str("dir", dir).Str("changes", changes).Msg("working tree is dirty")
		return errors.Errorf("%w: commit or stash them first, or pass --force", ErrDirtyTree)
	}
	return nil
}
