// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initUpstream creates a local repository with one committed dataset and
// returns its path plus a helper that commits further files.
func initUpstream(t *testing.T) (string, func(name, body string)) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit failed: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree failed: %v", err)
	}

	commit := func(name, body string) {
		t.Helper()
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("git add: %v", err)
		}
		_, err := wt.Commit("add "+name, &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "tester@example.org", When: time.Now()},
		})
		if err != nil {
			t.Fatalf("git commit: %v", err)
		}
	}

	commit("io/spectrum.dat", "initial data")
	return dir, commit
}

func TestCloneAndPull(t *testing.T) {
	upstream, commit := initUpstream(t)

	cloneDir := filepath.Join(t.TempDir(), "clone")
	if err := Clone(context.Background(), CloneOptions{URL: upstream, Dir: cloneDir}); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cloneDir, "io", "spectrum.dat")); err != nil {
		t.Fatalf("cloned file missing: %v", err)
	}

	// Nothing new: Pull reports no update.
	updated, err := Pull(context.Background(), cloneDir, nil)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if updated {
		t.Fatalf("expected already-up-to-date pull")
	}

	// New upstream commit: Pull fast-forwards.
	commit("io/fresh.dat", "new data")
	updated, err = Pull(context.Background(), cloneDir, nil)
	if err != nil {
		t.Fatalf("Pull after upstream commit failed: %v", err)
	}
	if !updated {
		t.Fatalf("expected pull to fast-forward")
	}
	if _, err := os.Stat(filepath.Join(cloneDir, "io", "fresh.dat")); err != nil {
		t.Fatalf("pulled file missing: %v", err)
	}
}

func TestCheckAdvertised(t *testing.T) {
	upstream, _ := initUpstream(t)

	refs, err := CheckAdvertised(context.Background(), upstream)
	if err != nil {
		t.Fatalf("CheckAdvertised failed: %v", err)
	}
	if refs == 0 {
		t.Fatalf("expected at least one advertised ref")
	}

	if _, err := CheckAdvertised(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing repository")
	}
}
