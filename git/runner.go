// Package git reads revision information from git checkouts via shell commands.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fwojciec/autoeval"
)

// Compile-time interface verification.
var _ autoeval.RevisionReader = (*Runner)(nil)

// ErrNotRepository is returned when a directory is not inside a git work tree.
var ErrNotRepository = errors.New("git: not a repository")

// Runner executes git commands via shell.
type Runner struct{}

// NewRunner creates a new git runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Revision returns the HEAD commit hash of the repository containing dir.
// A "-dirty" suffix is appended when the work tree has uncommitted changes.
func (r *Runner) Revision(ctx context.Context, dir string) (string, error) {
	head, err := r.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	status, err := r.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if status != "" {
		head += "-dirty"
	}
	return head, nil
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := string(exitErr.Stderr)
			if strings.Contains(stderr, "not a git repository") {
				return "", ErrNotRepository
			}
			return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(stderr))
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return strings.TrimSpace(string(output)), nil
}
