// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.
package model

import (
	"testing"
	"time"
)

func TestDatasetString(t *testing.T) {
	d := Dataset{Name: "io/irs26176_graphite002_red.nxs", SHA256: "9f2c1a0bdeadbeef"}
	want := "io/irs26176_graphite002_red.nxs (9f2c1a0b)"
	if got := d.String(); got != want {
		t.Fatalf("Dataset.String() = %q, want %q", got, want)
	}

	// Without a checksum the bare name is returned.
	d = Dataset{Name: "io/data.dat"}
	if got := d.String(); got != "io/data.dat" {
		t.Fatalf("Dataset.String() = %q, want %q", got, "io/data.dat")
	}
}

func TestDatasetFetched(t *testing.T) {
	d := Dataset{Name: "a"}
	if d.Fetched() {
		t.Fatal("dataset without local path reported as fetched")
	}
	d.LocalPath = "/data/a"
	if !d.Fetched() {
		t.Fatal("dataset with local path reported as not fetched")
	}
}

func TestTagList(t *testing.T) {
	d := Dataset{Tags: "qens, irs , , tutorial"}
	got := d.TagList()
	want := []string{"qens", "irs", "tutorial"}
	if len(got) != len(want) {
		t.Fatalf("TagList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TagList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if (Dataset{}).TagList() != nil {
		t.Fatal("empty tags should yield nil list")
	}
}

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"QENS, Tutorial, qens", "qens,tutorial"},
		{"  a ,b,, A ", "a,b"},
		{"", ""},
		{" , ,", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTags(tc.in); got != tc.want {
			t.Fatalf("NormalizeTags(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemoteString(t *testing.T) {
	r := Remote{Name: "origin", Kind: RemoteGit}
	if got := r.String(); got != "origin (git)" {
		t.Fatalf("Remote.String() = %q, want %q", got, "origin (git)")
	}
}

func TestFetchSessionExpired(t *testing.T) {
	now := time.Now()
	s := FetchSession{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("session expiring in a minute reported expired")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("session past its deadline reported live")
	}
}

func TestVerifyReportCounters(t *testing.T) {
	var r VerifyReport
	r.Add(FileReport{Name: "a", Status: FileOK})
	r.Add(FileReport{Name: "b", Status: FileMissing})
	r.Add(FileReport{Name: "c", Status: FileModified})
	r.Add(FileReport{Name: "d", Status: FileExtra})

	if r.Checked != 3 {
		t.Fatalf("Checked = %d, want 3 (extras excluded)", r.Checked)
	}
	if r.OK != 1 || r.Missing != 1 || r.Modified != 1 || r.Extra != 1 {
		t.Fatalf("unexpected counters: %+v", r)
	}
	if r.Clean() {
		t.Fatal("report with missing/modified files reported clean")
	}

	var clean VerifyReport
	clean.Add(FileReport{Name: "a", Status: FileOK})
	if !clean.Clean() {
		t.Fatal("all-ok report not clean")
	}
}

func TestDoctorReportHealthy(t *testing.T) {
	d := DoctorReport{Checks: []CheckResult{
		{Name: "index", OK: true},
		{Name: "sftp", Skipped: true},
	}}
	if !d.Healthy() {
		t.Fatal("report with only ok/skipped checks should be healthy")
	}
	d.Checks = append(d.Checks, CheckResult{Name: "git", OK: false})
	if d.Healthy() || d.Failed() != 1 {
		t.Fatalf("expected one failed check, got %d", d.Failed())
	}
}
