// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/viper"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/state"
	"github.com/jmborr/qefdata/internal/testutil"
	"github.com/jmborr/qefdata/internal/verify"
)

// auditContains reports whether the audit trail has an entry with the given
// action.
func auditContains(t *testing.T, action string) bool {
	t.Helper()
	entries, err := db.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("Failed to load audit log: %v", err)
	}
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

func TestGetCmd(t *testing.T) {
	// 1. Setup
	setupTestDB(t)

	const name = "io/irs26176_graphite002_red.nxs"
	content := "fake nexus payload"
	srv := testutil.NewFakeRaw(t, map[string]string{name: content})
	if _, err := db.AddRemote("gh-raw", model.RemoteRaw, srv.URL); err != nil {
		t.Fatalf("Failed to add raw remote: %v", err)
	}
	if _, err := db.AddDataset(model.Dataset{
		Name:   name,
		Kind:   model.KindNexus,
		SHA256: testutil.SHA256Hex([]byte(content)),
	}); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}

	// 2. Execute
	output := executeCommand(t, nil, "get", name)

	// 3. Assertions
	localPath := filepath.Join(viper.GetString("data_dir"), filepath.FromSlash(name))

	t.Run("should print the local path", func(t *testing.T) {
		if !strings.Contains(output, "Saved to "+localPath) {
			t.Errorf("Expected output to report the saved path, but it didn't. Output:\n%s", output)
		}
	})

	t.Run("should write the dataset to the data directory", func(t *testing.T) {
		got, err := os.ReadFile(localPath)
		if err != nil {
			t.Fatalf("Expected dataset on disk: %v", err)
		}
		if string(got) != content {
			t.Errorf("Dataset content mismatch: got %q, want %q", got, content)
		}
	})

	t.Run("catalog should record the retrieval", func(t *testing.T) {
		ds, err := db.GetDatasetByName(name)
		if err != nil || ds == nil {
			t.Fatalf("Expected dataset in catalog, got ds=%v err=%v", ds, err)
		}
		if !ds.Fetched() {
			t.Errorf("Expected dataset to be marked fetched")
		}
		if ds.LocalPath != localPath {
			t.Errorf("Expected local path %q, got %q", localPath, ds.LocalPath)
		}
		if ds.Source != model.SourceRaw {
			t.Errorf("Expected source %q, got %q", model.SourceRaw, ds.Source)
		}
		if !auditContains(t, "FETCH_DATASET") {
			t.Errorf("Expected a FETCH_DATASET audit entry")
		}
	})

	t.Run("second run should skip the download", func(t *testing.T) {
		output := executeCommand(t, nil, "get", name)
		if !strings.Contains(output, name+" is already up to date; download skipped.") {
			t.Errorf("Expected skip message, but it wasn't there. Output:\n%s", output)
		}
	})
}

func TestGetCmd_AutoRegister(t *testing.T) {
	setupTestDB(t)

	const name = "io/elastic_scan.dat"
	srv := testutil.NewFakeRaw(t, map[string]string{name: "q intensity"})
	if _, err := db.AddRemote("gh-raw", model.RemoteRaw, srv.URL); err != nil {
		t.Fatalf("Failed to add raw remote: %v", err)
	}

	output := executeCommand(t, nil, "get", name)

	if !strings.Contains(output, "Registered: "+name) {
		t.Errorf("Expected the unknown dataset to be registered on the fly. Output:\n%s", output)
	}
	if !strings.Contains(output, "Saved to ") {
		t.Errorf("Expected the dataset to be fetched after registration. Output:\n%s", output)
	}

	ds, err := db.GetDatasetByName(name)
	if err != nil || ds == nil {
		t.Fatalf("Expected auto-registered dataset in catalog, got ds=%v err=%v", ds, err)
	}
	if ds.Kind != model.KindAscii {
		t.Errorf("Expected .dat to classify as ascii, got %s", ds.Kind)
	}
}

func TestGetCmd_All(t *testing.T) {
	setupTestDB(t)

	files := map[string]string{
		"io/irs26176_graphite002_red.nxs": "reduced runs",
		"io/irs26176_graphite002_res.nxs": "resolution",
	}
	srv := testutil.NewFakeRaw(t, files)
	if _, err := db.AddRemote("gh-raw", model.RemoteRaw, srv.URL); err != nil {
		t.Fatalf("Failed to add raw remote: %v", err)
	}
	for name, body := range files {
		if _, err := db.AddDataset(model.Dataset{
			Name:   name,
			Kind:   model.KindNexus,
			SHA256: testutil.SHA256Hex([]byte(body)),
		}); err != nil {
			t.Fatalf("Failed to seed dataset %s: %v", name, err)
		}
	}

	output := executeCommand(t, nil, "get", "--all")

	if !strings.Contains(output, "Fetching 2 dataset(s)...") {
		t.Errorf("Expected the start message for 2 datasets. Output:\n%s", output)
	}
	if !strings.Contains(output, "Done: 2 fetched, 0 failed.") {
		t.Errorf("Expected a clean completion summary. Output:\n%s", output)
	}
	for name := range files {
		if _, err := os.Stat(filepath.Join(viper.GetString("data_dir"), filepath.FromSlash(name))); err != nil {
			t.Errorf("Expected %s on disk after --all: %v", name, err)
		}
	}
}

func TestFetchDataset_NoRemote(t *testing.T) {
	setupTestDB(t)

	_, err := fetchDataset(context.Background(), model.Dataset{Name: "io/a.nxs"}, t.TempDir(), false)
	if err == nil {
		t.Fatalf("Expected an error without any active remote")
	}
	if !strings.Contains(err.Error(), "no active raw or sftp remote configured") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFetchDataset_ChecksumMismatch(t *testing.T) {
	setupTestDB(t)

	const name = "io/tampered.nxs"
	srv := testutil.NewFakeRaw(t, map[string]string{name: "not what the catalog expects"})
	if _, err := db.AddRemote("gh-raw", model.RemoteRaw, srv.URL); err != nil {
		t.Fatalf("Failed to add raw remote: %v", err)
	}

	destDir := t.TempDir()
	ds := model.Dataset{Name: name, SHA256: testutil.SHA256Hex([]byte("the real content"))}
	_, err := fetchDataset(context.Background(), ds, destDir, false)
	if !errors.Is(err, fetch.ErrChecksumMismatch) {
		t.Fatalf("Expected ErrChecksumMismatch, got %v", err)
	}

	// The verified-rename discipline must not leave a plausible file behind.
	if _, err := os.Stat(filepath.Join(destDir, filepath.FromSlash(name))); !os.IsNotExist(err) {
		t.Errorf("Expected no dataset file after a checksum mismatch, stat err = %v", err)
	}
}

func TestInstallCmd(t *testing.T) {
	// 1. Setup
	setupTestDB(t)

	idx := testutil.NewFakeIndex(t, "qef")
	idx.AddSdist(t, "1.0.0", map[string]string{
		"setup.py":        "from setuptools import setup\nsetup(name='qef')\n",
		"qef/__init__.py": "__version__ = '1.0.0'\n",
	})
	if _, err := db.AddRemote("pypi", model.RemoteIndex, idx.URL()); err != nil {
		t.Fatalf("Failed to add index remote: %v", err)
	}

	// 2. Execute
	prefix := t.TempDir()
	output := executeCommand(t, nil, "install", "qef", "--prefix", prefix)

	// 3. Assertions
	t.Run("should report the installed release", func(t *testing.T) {
		if !strings.Contains(output, "Installed qef 1.0.0 (2 files,") {
			t.Errorf("Expected install summary for qef 1.0.0, but it was different. Output:\n%s", output)
		}
	})

	t.Run("should unpack the distribution under the prefix", func(t *testing.T) {
		for _, rel := range []string{"setup.py", "qef/__init__.py"} {
			path := filepath.Join(prefix, "qef-1.0.0", filepath.FromSlash(rel))
			if _, err := os.Stat(path); err != nil {
				t.Errorf("Expected %s after install: %v", path, err)
			}
		}
	})

	t.Run("should leave an audit entry", func(t *testing.T) {
		if !auditContains(t, "INSTALL_PACKAGE") {
			t.Errorf("Expected an INSTALL_PACKAGE audit entry")
		}
	})

	t.Run("dry run should not download anything", func(t *testing.T) {
		dryPrefix := t.TempDir()
		output := executeCommand(t, nil, "install", "qef", "--prefix", dryPrefix, "--dry-run")
		if !strings.Contains(output, "Dry run: qef 1.0.0 would be unpacked into") {
			t.Errorf("Expected dry-run report. Output:\n%s", output)
		}
		if _, err := os.Stat(filepath.Join(dryPrefix, "qef-1.0.0")); !os.IsNotExist(err) {
			t.Errorf("Expected no unpacked directory after a dry run, stat err = %v", err)
		}
	})
}

func TestInstallCmd_WithToken(t *testing.T) {
	setupTestDB(t)

	idx := testutil.NewFakeIndex(t, "qef")
	idx.AddSdist(t, "1.0.1", map[string]string{"setup.py": "setup"})
	idx.RequireToken("sesame")
	if _, err := db.AddRemote("pypi", model.RemoteIndex, idx.URL()); err != nil {
		t.Fatalf("Failed to add index remote: %v", err)
	}

	viper.Set("index.token", "sesame")
	t.Cleanup(func() {
		viper.Set("index.token", "")
		state.TokenCache.Clear()
	})

	prefix := t.TempDir()
	output := executeCommand(t, nil, "install", "qef", "--prefix", prefix)

	if !strings.Contains(output, "Installed qef 1.0.1") {
		t.Errorf("Expected the token from the config to authenticate the install. Output:\n%s", output)
	}
}

func TestSnapshotCmd_Data(t *testing.T) {
	// 1. Setup
	setupTestDB(t)

	blob := testutil.TarGz(t, map[string]string{
		"qef_data-1.0/io/elastic.dat": "elastic scan",
		"qef_data-1.0/README.md":      "data files",
	})
	srv := testutil.NewFakeArchive(t, "archive/v1.0.tar.gz", blob)
	if _, err := db.AddRemote("gh-archive", model.RemoteArchive, srv.URL+"/archive/%s.tar.gz"); err != nil {
		t.Fatalf("Failed to add archive remote: %v", err)
	}

	// 2. Execute
	output := executeCommand(t, nil, "snapshot", "v1.0", "--data")

	// 3. Assertions
	dataDir := viper.GetString("data_dir")

	t.Run("should download and unpack into the data directory", func(t *testing.T) {
		if !strings.Contains(output, "Downloading release archive for tag v1.0...") {
			t.Errorf("Expected download message. Output:\n%s", output)
		}
		if !strings.Contains(output, fmt.Sprintf("Snapshot v1.0 unpacked to %s.", dataDir)) {
			t.Errorf("Expected unpack success message. Output:\n%s", output)
		}
		got, err := os.ReadFile(filepath.Join(dataDir, "io", "elastic.dat"))
		if err != nil {
			t.Fatalf("Expected unpacked dataset on disk: %v", err)
		}
		if string(got) != "elastic scan" {
			t.Errorf("Unpacked content mismatch: got %q", got)
		}
	})

	t.Run("catalog should record the snapshot", func(t *testing.T) {
		snap, err := db.GetSnapshotByTag("v1.0")
		if err != nil || snap == nil {
			t.Fatalf("Expected snapshot in catalog, got snap=%v err=%v", snap, err)
		}
		if snap.DatasetCount != 2 {
			t.Errorf("Expected 2 unpacked datasets on record, got %d", snap.DatasetCount)
		}
		if snap.SHA256 != testutil.SHA256Hex(blob) {
			t.Errorf("Expected the archive checksum on record")
		}
	})

	t.Run("second run should be skipped without --force", func(t *testing.T) {
		output := executeCommand(t, nil, "snapshot", "v1.0", "--data")
		if !strings.Contains(output, "Snapshot v1.0 is already unpacked (use --force to refresh).") {
			t.Errorf("Expected already-present message. Output:\n%s", output)
		}
	})
}

// initUpstreamRepo creates a local git repository with one committed dataset
// and returns its path plus a helper that commits further files.
func initUpstreamRepo(t *testing.T) (string, func(name, body string)) {
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

func TestCloneCmd_Data(t *testing.T) {
	setupTestDB(t)

	upstream, _ := initUpstreamRepo(t)
	viper.Set("git.data_url", upstream)
	t.Cleanup(func() { viper.Set("git.data_url", "") })

	dir := filepath.Join(t.TempDir(), "qef_data")
	output := executeCommand(t, nil, "clone", dir, "--data")

	if !strings.Contains(output, fmt.Sprintf("Cloned %s into %s.", upstream, dir)) {
		t.Errorf("Expected clone success message. Output:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "io", "spectrum.dat")); err != nil {
		t.Errorf("Expected cloned dataset on disk: %v", err)
	}
	if !auditContains(t, "CLONE_REPO") {
		t.Errorf("Expected a CLONE_REPO audit entry")
	}
}

func TestUpdateCmd(t *testing.T) {
	setupTestDB(t)

	upstream, commit := initUpstreamRepo(t)
	dir := filepath.Join(t.TempDir(), "clone")
	if err := fetch.Clone(context.Background(), fetch.CloneOptions{URL: upstream, Dir: dir}); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	t.Run("up-to-date clone reports no change", func(t *testing.T) {
		output := executeCommand(t, nil, "update", dir)
		if !strings.Contains(output, dir+" is already up to date.") {
			t.Errorf("Expected up-to-date message. Output:\n%s", output)
		}
	})

	t.Run("pull fast-forwards after an upstream commit", func(t *testing.T) {
		commit("io/fresh.dat", "new data")
		output := executeCommand(t, nil, "update", dir)
		if !strings.Contains(output, fmt.Sprintf("Updated %s to the latest revision.", dir)) {
			t.Errorf("Expected update message. Output:\n%s", output)
		}
		if _, err := os.Stat(filepath.Join(dir, "io", "fresh.dat")); err != nil {
			t.Errorf("Expected pulled dataset on disk: %v", err)
		}
	})
}

func TestListAndShowCmd(t *testing.T) {
	setupTestDB(t)

	seed := []model.Dataset{
		{Name: "io/irs26176_graphite002_red.nxs", Kind: model.KindNexus, SHA256: strings.Repeat("b", 64), Size: 2048, Tags: "qens"},
		{Name: "docs/notes.txt", Kind: model.KindAscii},
	}
	for _, ds := range seed {
		if _, err := db.AddDataset(ds); err != nil {
			t.Fatalf("Failed to seed dataset %s: %v", ds.Name, err)
		}
	}

	t.Run("list should show all datasets", func(t *testing.T) {
		output := executeCommand(t, nil, "list")
		for _, want := range []string{"NAME", "io/irs26176_graphite002_red.nxs", "docs/notes.txt", "nexus", "ascii", "2.0 KiB"} {
			if !strings.Contains(output, want) {
				t.Errorf("Expected list output to contain %q. Output:\n%s", want, output)
			}
		}
	})

	t.Run("list --kind should filter", func(t *testing.T) {
		output := executeCommand(t, nil, "list", "--kind", "ascii")
		if !strings.Contains(output, "docs/notes.txt") {
			t.Errorf("Expected the ascii dataset in filtered output. Output:\n%s", output)
		}
		if strings.Contains(output, "io/irs26176_graphite002_red.nxs") {
			t.Errorf("Did not expect the nexus dataset in ascii-filtered output. Output:\n%s", output)
		}
	})

	t.Run("list --search should match tags", func(t *testing.T) {
		output := executeCommand(t, nil, "list", "--search", "qens")
		if !strings.Contains(output, "io/irs26176_graphite002_red.nxs") {
			t.Errorf("Expected the tagged dataset in search output. Output:\n%s", output)
		}
		if strings.Contains(output, "docs/notes.txt") {
			t.Errorf("Did not expect untagged dataset in search output. Output:\n%s", output)
		}
	})

	t.Run("show should print the dataset details", func(t *testing.T) {
		output := executeCommand(t, nil, "show", "io/irs26176_graphite002_red.nxs")
		for _, want := range []string{
			"Name:       io/irs26176_graphite002_red.nxs",
			"Kind:       nexus",
			"Status:     active",
			"Tags:       qens",
			"SHA256:     " + strings.Repeat("b", 64),
			"Local copy: not fetched yet",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Expected show output to contain %q. Output:\n%s", want, output)
			}
		}
	})
}

func TestRemotesCmds(t *testing.T) {
	setupTestDB(t)

	output := executeCommand(t, nil, "remotes", "add", "gh-raw", "raw", "https://raw.example.org/qef_data/master")
	if !strings.Contains(output, "Remote added with ID:") {
		t.Errorf("Expected add confirmation. Output:\n%s", output)
	}

	t.Run("list shows the new remote as active", func(t *testing.T) {
		output := executeCommand(t, nil, "remotes", "list")
		if !strings.Contains(output, "gh-raw") || !strings.Contains(output, "yes") {
			t.Errorf("Expected gh-raw to be listed active. Output:\n%s", output)
		}
	})

	t.Run("disable flips the flag", func(t *testing.T) {
		output := executeCommand(t, nil, "remotes", "disable", "gh-raw")
		if !strings.Contains(output, "Remote gh-raw disabled") {
			t.Errorf("Expected disable confirmation. Output:\n%s", output)
		}
	})

	t.Run("disabling twice reports the state", func(t *testing.T) {
		output := executeCommand(t, nil, "remotes", "disable", "gh-raw")
		if !strings.Contains(output, "Remote gh-raw is already disabled") {
			t.Errorf("Expected already-disabled message. Output:\n%s", output)
		}
	})

	t.Run("enable restores the remote", func(t *testing.T) {
		output := executeCommand(t, nil, "remotes", "enable", "gh-raw")
		if !strings.Contains(output, "Remote gh-raw enabled") {
			t.Errorf("Expected enable confirmation. Output:\n%s", output)
		}
		remote, err := db.GetActiveRemoteByKind(model.RemoteRaw)
		if err != nil || remote == nil {
			t.Fatalf("Expected an active raw remote, got remote=%v err=%v", remote, err)
		}
	})
}

func TestVerifyCmd_ManifestRoundTrip(t *testing.T) {
	setupTestDB(t)

	dataDir := viper.GetString("data_dir")
	files := map[string]string{
		"io/elastic.dat": "q intensity",
		"docs/notes.txt": "beamline notes",
	}
	for name, body := range files {
		full := filepath.Join(dataDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	t.Run("--write creates the manifest", func(t *testing.T) {
		output := executeCommand(t, nil, "verify", "--write")
		if !strings.Contains(output, "Manifest written:") || !strings.Contains(output, "(2 files)") {
			t.Errorf("Expected manifest write report. Output:\n%s", output)
		}
		if _, err := os.Stat(filepath.Join(dataDir, verify.ManifestName)); err != nil {
			t.Fatalf("Expected manifest on disk: %v", err)
		}
	})

	t.Run("verify reports a clean tree", func(t *testing.T) {
		output := executeCommand(t, nil, "verify")
		if !strings.Contains(output, "2 files verified, all ok (0 extra)") {
			t.Errorf("Expected clean verification summary. Output:\n%s", output)
		}
	})
}

func TestDoctorCmd(t *testing.T) {
	setupTestDB(t)

	idx := testutil.NewFakeIndex(t, "qef")
	idx.AddSdist(t, "0.9.2", map[string]string{"setup.py": "setup"})
	upstream, _ := initUpstreamRepo(t)
	rawSrv := testutil.NewFakeRaw(t, map[string]string{"README.md": "# qef data"})
	archBlob := testutil.TarGz(t, map[string]string{"qef_data-HEAD/README.md": "x"})
	archSrv := testutil.NewFakeArchive(t, "archive/HEAD.tar.gz", archBlob)

	// Point every probe at a local endpoint; the sftp mirror stays
	// unconfigured and must be reported as skipped.
	keys := map[string]string{
		"index.url":     idx.URL(),
		"index.package": "qef",
		"git.data_url":  upstream,
		"archive.url":   archSrv.URL + "/archive/%s.tar.gz",
		"raw.url":       rawSrv.URL,
		"sftp.host":     "",
	}
	for k, v := range keys {
		viper.Set(k, v)
	}
	t.Cleanup(func() {
		for k := range keys {
			viper.Set(k, "")
		}
	})

	output := executeCommand(t, nil, "doctor")

	for _, want := range []string{
		"✓ package index: qef 0.9.2 available",
		"✓ git remote:",
		"✓ release archive: HTTP 200",
		"✓ raw file: README.md (HTTP 200)",
		"- sftp mirror: not configured",
		"All configured channels are healthy.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected doctor output to contain %q. Output:\n%s", want, output)
		}
	}
}

func TestBackupAndRestoreCmd(t *testing.T) {
	// 1. Setup: a catalog with datasets and a remote.
	setupTestDB(t)
	if _, err := db.AddDataset(model.Dataset{Name: "io/a.nxs", Kind: model.KindNexus, SHA256: strings.Repeat("c", 64)}); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}
	if _, err := db.AddDataset(model.Dataset{Name: "io/b.dat", Kind: model.KindAscii}); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}
	if _, err := db.AddRemote("gh-raw", model.RemoteRaw, "https://raw.example.org/qef_data/master"); err != nil {
		t.Fatalf("Failed to seed remote: %v", err)
	}

	// 2. Back up the catalog.
	backupFile := filepath.Join(t.TempDir(), "catalog.json.zst")
	output := executeCommand(t, nil, "backup", backupFile)
	if !strings.Contains(output, fmt.Sprintf("Backup written to %s (2 datasets, 1 remotes).", backupFile)) {
		t.Errorf("Expected backup report. Output:\n%s", output)
	}
	if _, err := os.Stat(backupFile); err != nil {
		t.Fatalf("Expected backup file on disk: %v", err)
	}

	// 3. Restore into a fresh catalog.
	viper.Set("database.dsn", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"_restored?mode=memory&cache=shared")
	output = executeCommand(t, nil, "restore", backupFile)
	if !strings.Contains(output, "Restore complete.") {
		t.Errorf("Expected restore confirmation. Output:\n%s", output)
	}

	datasets, err := db.GetAllDatasets()
	if err != nil {
		t.Fatalf("Failed to list restored datasets: %v", err)
	}
	if len(datasets) != 2 {
		t.Errorf("Expected 2 restored datasets, got %d", len(datasets))
	}
	remotes, err := db.GetAllRemotes()
	if err != nil {
		t.Fatalf("Failed to list restored remotes: %v", err)
	}
	if len(remotes) != 1 {
		t.Errorf("Expected 1 restored remote, got %d", len(remotes))
	}
}

func TestMigrateCmd(t *testing.T) {
	setupTestDB(t)
	if _, err := db.AddDataset(model.Dataset{Name: "io/a.nxs", Kind: model.KindNexus}); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}

	targetDSN := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "_target?mode=memory&cache=shared"
	output := executeCommand(t, nil, "migrate", "--type", "sqlite", "--dsn", targetDSN)
	if !strings.Contains(output, "Migration complete.") {
		t.Errorf("Expected migration confirmation. Output:\n%s", output)
	}

	// The migration leaves the global store pointing at the target.
	datasets, err := db.GetAllDatasets()
	if err != nil {
		t.Fatalf("Failed to list migrated datasets: %v", err)
	}
	if len(datasets) != 1 || datasets[0].Name != "io/a.nxs" {
		t.Errorf("Expected the migrated dataset in the target catalog, got %+v", datasets)
	}
}
