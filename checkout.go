package mosquittobuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

const gitProgram = "git"

// gitRequirement is the toolchain entry for the checkout step.
var gitRequirement = ToolRequirement{Name: gitProgram, Purpose: "Source checkout"}

// Checkout is a working copy of the upstream source tree.
type Checkout struct {
	Dir    string // Checkout directory
	URL    string // Remote the sources were cloned from
	Commit string // Resolved HEAD commit
	Pinned bool   // True when Commit was verified against a pinned hash
}

// CheckoutSource produces a fresh shallow checkout of the configured revision.
//
// Any existing checkout directory is removed first; there is no incremental
// update. Without a pinned hash the default branch tip is cloned and its
// commit only logged. With a pinned hash that single commit is fetched and
// checked out, and the resolved HEAD must equal the hash exactly or
// ErrHashMismatch is returned.
func CheckoutSource(ctx context.Context, config *Config, logger *slog.Logger) (*Checkout, error) {
	dir := config.CheckoutDir()

	if _, err := os.Lstat(dir); err == nil {
		logger.Debug("removing previous checkout", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("%w: removing %s: %v", ErrCheckout, dir, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrCheckout, filepath.Dir(dir), err)
	}

	steps := []command{
		{Name: gitProgram, Args: []string{"clone", config.Source.URL, "--depth=1", dir}},
	}
	if config.Pinned() {
		steps = append(steps,
			command{Name: gitProgram, Args: []string{"fetch", "--depth", "1", "origin", config.Source.Hash}, Dir: dir},
			command{Name: gitProgram, Args: []string{"checkout", config.Source.Hash}, Dir: dir},
		)
	}

	for _, c := range steps {
		logger.Debug("running git", "args", strings.Join(c.Args, " "))
		if output, err := runCommand(ctx, c); err != nil {
			return nil, checkoutError(err, output)
		}
	}

	commit, err := resolveHead(dir)
	if err != nil {
		return nil, err
	}

	if config.Pinned() && commit != config.Source.Hash {
		return nil, fmt.Errorf("%w: found %s, expected %s", ErrHashMismatch, commit, config.Source.Hash)
	}

	logger.Debug("resolved source commit", "hash", commit, "pinned", config.Pinned())

	return &Checkout{
		Dir:    dir,
		URL:    config.Source.URL,
		Commit: commit,
		Pinned: config.Pinned(),
	}, nil
}

// resolveHead returns the commit HEAD points at in the repository at dir.
func resolveHead(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrCheckout, dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: resolving HEAD: %v", ErrCheckout, err)
	}

	return head.Hash().String(), nil
}

func checkoutError(err error, output []string) error {
	detail := strings.TrimSpace(strings.Join(output, "\n"))
	if detail == "" {
		return fmt.Errorf("%w: %v", ErrCheckout, err)
	}
	return fmt.Errorf("%w: %v\n\n%s", ErrCheckout, err, detail)
}
