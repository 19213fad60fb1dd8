package vcs

// #region imports
import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// #endregion

// #region status

// Status is the repository state the sprint machine reports on.
type Status struct {
	Branch        string
	ModifiedCount int
}

// #endregion

// #region git

// Git shells out to the git binary for sprint isolation branches,
// commits, and one-revision rollbacks.
type Git struct {
	Dir          string
	BranchPrefix string
}

// New returns a git collaborator rooted at dir with the stock
// sprint branch prefix.
func New(dir string) *Git {
	return &Git{Dir: dir, BranchPrefix: "sprint-"}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// #endregion

// #region init

// InitIfMissing initializes a repository with an initial commit when
// the directory is not already under git.
func (g *Git) InitIfMissing(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.Dir, ".git")); err == nil {
		return nil
	}
	if _, err := g.run(ctx, "init"); err != nil {
		return err
	}
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	// Initial commit may be empty when the work dir starts bare.
	if _, err := g.run(ctx, "commit", "--allow-empty", "-m", "Initial project setup"); err != nil {
		return err
	}
	return nil
}

// #endregion

// #region branch

// Branch switches to the sprint isolation branch, creating it if
// needed. Pending changes are committed first so the switch is clean.
func (g *Git) Branch(ctx context.Context, id string) error {
	name := g.BranchPrefix + id

	if err := g.Commit(ctx, fmt.Sprintf("Auto-commit before %s", name)); err != nil {
		return err
	}

	out, err := g.run(ctx, "branch", "--list", name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		_, err = g.run(ctx, "checkout", name)
		return err
	}
	_, err = g.run(ctx, "checkout", "-b", name)
	return err
}

// #endregion

// #region commit

// Commit stages and commits all pending changes. A clean tree is a
// no-op success.
func (g *Git) Commit(ctx context.Context, message string) error {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return nil
	}
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err = g.run(ctx, "commit", "-m", message)
	return err
}

// #endregion

// #region rollback

// RollbackOneRevision hard-resets the working tree to the previous
// commit.
func (g *Git) RollbackOneRevision(ctx context.Context) error {
	_, err := g.run(ctx, "reset", "--hard", "HEAD~1")
	return err
}

// #endregion

// #region status-query

// Status reports the current branch and the number of modified paths.
func (g *Git) Status(ctx context.Context) (Status, error) {
	branch, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Status{}, err
	}
	porcelain, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	return Status{
		Branch:        strings.TrimSpace(branch),
		ModifiedCount: countLines(porcelain),
	}, nil
}

func countLines(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// #endregion
