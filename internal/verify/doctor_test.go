// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package verify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/testutil"
)

// initGitRemote creates a local repository with one commit so the doctor has
// refs to discover.
func initGitRemote(t *testing.T) string {
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
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatalf("git add: %v", err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.org", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}
	return dir
}

func resultsByName(report *model.DoctorReport) map[string]model.CheckResult {
	out := make(map[string]model.CheckResult, len(report.Checks))
	for _, c := range report.Checks {
		out[c.Name] = c
	}
	return out
}

func TestDoctor_AllChannelsHealthy(t *testing.T) {
	idx := testutil.NewFakeIndex(t, "qef")
	idx.AddSdist(t, "1.0.8", map[string]string{"setup.py": "from distutils.core import setup"})

	upstream := initGitRemote(t)
	archive := testutil.NewFakeArchive(t, "qef-HEAD.tar.gz", []byte("blob"))
	raw := testutil.NewFakeRaw(t, map[string]string{"README.md": "# qef data"})

	report := Doctor(context.Background(), DoctorOptions{
		IndexURL:   idx.URL(),
		Package:    "qef",
		GitURL:     upstream,
		ArchiveURL: archive.URL + "/qef-%s.tar.gz",
		RawURL:     raw.URL,
		Timeout:    5 * time.Second,
	})

	if len(report.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(report.Checks))
	}
	if !report.Healthy() || report.Failed() != 0 {
		t.Fatalf("expected healthy report, got %+v", report.Checks)
	}

	res := resultsByName(report)
	if c := res["package index"]; !c.OK || !strings.Contains(c.Detail, "qef 1.0.8") {
		t.Errorf("package index check: %+v", c)
	}
	if c := res["git remote"]; !c.OK || !strings.Contains(c.Detail, "refs advertised") {
		t.Errorf("git remote check: %+v", c)
	}
	if c := res["release archive"]; !c.OK || !strings.Contains(c.Detail, "HTTP 200") {
		t.Errorf("release archive check: %+v", c)
	}
	if c := res["raw file"]; !c.OK || !strings.Contains(c.Detail, "README.md") {
		t.Errorf("raw file check: %+v", c)
	}
	if c := res["sftp mirror"]; !c.Skipped {
		t.Errorf("sftp mirror should be skipped when unconfigured: %+v", c)
	}
	if res["package index"].Elapsed <= 0 {
		t.Errorf("probe elapsed time not recorded")
	}
}

func TestDoctor_FailedChannel(t *testing.T) {
	raw := testutil.NewFakeRaw(t, map[string]string{})

	report := Doctor(context.Background(), DoctorOptions{
		RawURL:  raw.URL,
		Timeout: 5 * time.Second,
	})

	if report.Healthy() || report.Failed() != 1 {
		t.Fatalf("expected exactly one failed check, got %+v", report.Checks)
	}
	c := resultsByName(report)["raw file"]
	if c.OK || c.Skipped {
		t.Fatalf("raw file check should have failed: %+v", c)
	}
	if !strings.Contains(c.Detail, "404") {
		t.Errorf("failure detail should name the status, got %q", c.Detail)
	}
}

func TestDoctor_UnconfiguredSkipsAll(t *testing.T) {
	report := Doctor(context.Background(), DoctorOptions{Timeout: time.Second})

	if len(report.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(report.Checks))
	}
	if !report.Healthy() {
		t.Fatalf("nothing configured must not count as failure: %+v", report.Checks)
	}
	for _, c := range report.Checks {
		if !c.Skipped {
			t.Errorf("%s should be skipped, got %+v", c.Name, c)
		}
	}
}

func TestDoctor_BadGitRemote(t *testing.T) {
	report := Doctor(context.Background(), DoctorOptions{
		GitURL:  filepath.Join(t.TempDir(), "not-a-repo"),
		Timeout: 5 * time.Second,
	})
	c := resultsByName(report)["git remote"]
	if c.OK || c.Skipped || c.Detail == "" {
		t.Fatalf("expected git probe failure with reason, got %+v", c)
	}
}
