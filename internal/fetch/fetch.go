// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package fetch implements the retrieval transports: raw HTTP downloads,
// release-archive snapshots, git clones, and SFTP mirrors. All transports
// write downloads to a temporary file first and rename into place only after
// the checksum is known, so an interrupted fetch never leaves a plausible
// but corrupt dataset behind.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jmborr/qefdata/internal/model"
)

// ErrChecksumMismatch is returned when a downloaded file does not hash to
// the checksum the catalog expects.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Progress is called as bytes arrive. total is -1 when the remote did not
// announce a length.
type Progress func(done, total int64)

// Request describes one dataset retrieval.
type Request struct {
	// Dataset is the repository-relative path of the file, e.g.
	// "io/irs26176_graphite002_red.nxs".
	Dataset string
	// DestDir is the local data directory the dataset lands under.
	DestDir string
	// WantSHA256 is the checksum the catalog has on record, if any. A
	// mismatch aborts the fetch; a match with an existing local file skips
	// it unless Force is set.
	WantSHA256 string
	Force      bool
	Progress   Progress
}

// Result reports a completed retrieval.
type Result struct {
	LocalPath string
	SHA256    string
	Size      int64
	Source    model.SourceKind
	// Skipped is true when the local copy already matched the catalog
	// checksum and no bytes were transferred.
	Skipped bool
}

// Fetcher retrieves single datasets. Archive snapshots and git clones have
// their own entry points; only the per-file channels implement Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Options carries transport construction knobs the remote URL alone does not
// encode.
type Options struct {
	// Token authenticates raw/index HTTP requests when set.
	Token string
	// PrivateKey is PEM-encoded key material for SFTP auth; the SSH agent
	// is the fallback.
	PrivateKey string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return defaultHTTPClient
}

// defaultHTTPClient bounds the handshake and header wait but not the body
// read; large datasets stream for as long as the context allows.
var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}

// NewFetcher returns the transport serving the remote's kind. Index remotes
// are handled by the index package and git/archive remotes by Clone and
// DownloadSnapshot; asking for a per-file fetcher on those kinds is an error.
func NewFetcher(remote *model.Remote, opts Options) (Fetcher, error) {
	switch remote.Kind {
	case model.RemoteRaw:
		return &RawFetcher{BaseURL: remote.URL, Client: opts.client(), Token: opts.Token}, nil
	case model.RemoteSFTP:
		host, user, base, err := ParseSFTPURL(remote.URL)
		if err != nil {
			return nil, err
		}
		return &MirrorFetcher{Host: host, User: user, BasePath: base, PrivateKey: opts.PrivateKey}, nil
	default:
		return nil, fmt.Errorf("remote kind %q cannot fetch single datasets", remote.Kind)
	}
}

// ParseSFTPURL splits an sftp://user@host[:port]/base/path URL into its
// parts. The path is passed to the server as-is, so it is absolute; an empty
// path means the login directory.
func ParseSFTPURL(raw string) (host, user, base string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid sftp url %q: %w", raw, err)
	}
	if u.Scheme != "sftp" {
		return "", "", "", fmt.Errorf("not an sftp url: %q", raw)
	}
	if u.Host == "" {
		return "", "", "", fmt.Errorf("sftp url %q has no host", raw)
	}
	user = u.User.Username()
	base = u.Path
	if base == "/" {
		base = ""
	}
	return u.Host, user, base, nil
}
