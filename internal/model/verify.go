// Copyright (c) 2025 Jose Borreguero
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// This file defines the data structures for integrity verification and for
// the doctor checks that probe the documented retrieval channels.
package model // import "github.com/jmborr/qefdata/internal/model"

import (
	"fmt"
	"time"
)

// FileStatus classifies the state of one manifest entry on disk.
type FileStatus string

const (
	// FileOK means the file exists and its checksum matches the manifest.
	FileOK FileStatus = "ok"
	// FileMissing means the manifest lists the file but it is absent.
	FileMissing FileStatus = "missing"
	// FileModified means the file exists but its checksum differs.
	FileModified FileStatus = "modified"
	// FileExtra means the file exists on disk but the manifest does not list it.
	FileExtra FileStatus = "extra"
)

// FileReport is the verification outcome for a single file.
type FileReport struct {
	Name     string
	Status   FileStatus
	Expected string // manifest checksum, empty for extra files
	Actual   string // computed checksum, empty for missing files
}

// VerifyReport aggregates the verification of a data directory against a
// manifest or against the catalog.
type VerifyReport struct {
	Files    []FileReport
	Checked  int
	OK       int
	Missing  int
	Modified int
	Extra    int
}

// Clean reports whether every checked file matched.
func (r *VerifyReport) Clean() bool {
	return r.Missing == 0 && r.Modified == 0
}

// Add appends a file report and updates the counters.
func (r *VerifyReport) Add(f FileReport) {
	r.Files = append(r.Files, f)
	r.Checked++
	switch f.Status {
	case FileOK:
		r.OK++
	case FileMissing:
		r.Missing++
	case FileModified:
		r.Modified++
	case FileExtra:
		r.Extra++
		r.Checked-- // extras are informational, not part of the checked set
	}
}

// Summary returns a one-line human-readable outcome.
func (r *VerifyReport) Summary() string {
	if r.Clean() {
		return fmt.Sprintf("%d files verified, all ok (%d extra)", r.Checked, r.Extra)
	}
	return fmt.Sprintf("%d files verified: %d ok, %d missing, %d modified (%d extra)",
		r.Checked, r.OK, r.Missing, r.Modified, r.Extra)
}

// CheckResult is the outcome of a single doctor probe against a documented
// retrieval channel.
type CheckResult struct {
	Name    string
	OK      bool
	Skipped bool
	Detail  string
	Elapsed time.Duration
}

// DoctorReport collects the probe results for all documented channels.
type DoctorReport struct {
	Checks []CheckResult
}

// Failed returns the number of probes that ran and failed.
func (d *DoctorReport) Failed() int {
	n := 0
	for _, c := range d.Checks {
		if !c.OK && !c.Skipped {
			n++
		}
	}
	return n
}

// Healthy reports whether every non-skipped probe succeeded.
func (d *DoctorReport) Healthy() bool { return d.Failed() == 0 }
