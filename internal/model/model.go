// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across QEFData.
// The catalog database, the transports and the user interfaces all exchange
// these types; they carry no behavior beyond small formatting helpers.
package model // import "github.com/jmborr/qefdata/internal/model"

import (
	"fmt"
	"strings"
	"time"
)

// RemoteKind identifies the retrieval channel a remote serves.
type RemoteKind string

const (
	// RemoteIndex is a package index answering project-metadata queries.
	RemoteIndex RemoteKind = "index"
	// RemoteGit is a git endpoint the repository can be cloned from.
	RemoteGit RemoteKind = "git"
	// RemoteArchive serves compressed snapshots of the repository at a tag.
	RemoteArchive RemoteKind = "archive"
	// RemoteRaw serves individual files through the web raw interface.
	RemoteRaw RemoteKind = "raw"
	// RemoteSFTP is an SFTP mirror of the data repository.
	RemoteSFTP RemoteKind = "sftp"
)

// ParseRemoteKind validates a user-supplied remote kind string.
func ParseRemoteKind(s string) (RemoteKind, error) {
	switch k := RemoteKind(strings.ToLower(strings.TrimSpace(s))); k {
	case RemoteIndex, RemoteGit, RemoteArchive, RemoteRaw, RemoteSFTP:
		return k, nil
	default:
		return "", fmt.Errorf("unknown remote kind %q (expected index, git, archive, raw or sftp)", s)
	}
}

// SourceKind records which channel a dataset was obtained through.
type SourceKind string

const (
	SourceRaw     SourceKind = "raw"
	SourceArchive SourceKind = "archive"
	SourceClone   SourceKind = "clone"
	SourceSFTP    SourceKind = "sftp"
	SourceImport  SourceKind = "import"
)

// DatasetKind is a coarse classification of a dataset's file format.
type DatasetKind string

const (
	KindNexus   DatasetKind = "nexus"
	KindAscii   DatasetKind = "ascii"
	KindArchive DatasetKind = "archive"
	KindOther   DatasetKind = "other"
)

// Dataset is a single file of the test-data repository tracked by the
// catalog. Name is the path of the file relative to the repository root and
// is unique within the catalog. LocalPath is empty until the dataset has
// been fetched.
type Dataset struct {
	ID        int
	Name      string
	Kind      DatasetKind
	Size      int64
	SHA256    string
	LocalPath string
	Source    SourceKind
	FetchedAt time.Time
	IsActive  bool
	Tags      string
}

// String returns the name plus a short checksum, e.g. "io/irs26176.nxs (9f2c1a0b)".
func (d Dataset) String() string {
	if len(d.SHA256) >= 8 {
		return fmt.Sprintf("%s (%s)", d.Name, d.SHA256[:8])
	}
	return d.Name
}

// Fetched reports whether the dataset is present on disk according to the catalog.
func (d Dataset) Fetched() bool { return d.LocalPath != "" }

// TagList splits the normalized comma-separated tag string.
func (d Dataset) TagList() []string {
	if strings.TrimSpace(d.Tags) == "" {
		return nil
	}
	parts := strings.Split(d.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Remote is a configured endpoint datasets or distributions can be retrieved
// from. Exactly one remote per kind is usually active, but the catalog does
// not enforce that; the fetch layer picks the first active remote of the
// kind it needs.
type Remote struct {
	ID       int
	Name     string
	Kind     RemoteKind
	URL      string
	IsActive bool
}

// String returns the "name (kind)" representation used in lists and logs.
func (r Remote) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Kind)
}

// Snapshot records one unpacked release archive of the data repository.
type Snapshot struct {
	ID           int
	Tag          string
	URL          string
	SHA256       string
	Size         int64
	DatasetCount int
	UnpackedAt   time.Time
}

// KnownHost pins the SSH public key presented by an SFTP mirror. The key is
// stored in authorized_keys format ("ssh-ed25519 AAAA...").
type KnownHost struct {
	Hostname string
	Key      string
}

// AuditLogEntry is one record of the append-only audit trail. Every mutating
// catalog operation writes one.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Username  string
	Action    string
	Details   string
}

// FetchSessionStatus values for FetchSession.Status.
const (
	FetchPending  = "pending"
	FetchRunning  = "running"
	FetchComplete = "complete"
	FetchFailed   = "failed"
)

// FetchSession is crash-safe bookkeeping for an in-flight retrieval. A
// session that outlives ExpiresAt without completing is considered abandoned
// and is purged by catalog maintenance.
type FetchSession struct {
	ID        string
	Dataset   string
	Remote    string
	Status    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has outlived its deadline.
func (s FetchSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// NormalizeTags lower-cases, trims and de-duplicates a comma-separated tag
// string, preserving first-seen order.
func NormalizeTags(tags string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range strings.Split(tags, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, ",")
}
