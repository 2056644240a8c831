// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/jmborr/qefdata/internal/logging"
)

// CloneOptions configures Clone.
type CloneOptions struct {
	URL string
	// Dir is the directory the working tree is created in.
	Dir string
	// Depth limits history; 0 clones everything.
	Depth int
	// Progress receives the server's sideband messages; nil silences them.
	Progress io.Writer
}

// Clone creates a full working copy of the data repository.
func Clone(ctx context.Context, opts CloneOptions) error {
	_, err := git.PlainCloneContext(ctx, opts.Dir, false, &git.CloneOptions{
		URL:      opts.URL,
		Depth:    opts.Depth,
		Progress: opts.Progress,
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", opts.URL, err)
	}
	logging.Debugf("cloned %s into %s", opts.URL, opts.Dir)
	return nil
}

// Pull fast-forwards an existing clone. It returns false with a nil error
// when the clone was already up to date.
func Pull(ctx context.Context, dir string, progress io.Writer) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("opening clone at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Progress: progress})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pulling %s: %w", dir, err)
	}
	return true, nil
}

// CheckAdvertised asks the remote for its reference advertisement without
// transferring objects. Doctor uses it as the cheapest "is the git endpoint
// alive and really a repository" probe.
func CheckAdvertised(ctx context.Context, url string) (int, error) {
	rem := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("listing refs of %s: %w", url, err)
	}
	return len(refs), nil
}
