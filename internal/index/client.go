// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package index talks to the package index the qef distributions are
// published on. It consumes the JSON metadata API ("<index>/<package>/json"),
// resolves version requests to concrete release artifacts, and installs
// source distributions into a local prefix.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jmborr/qefdata/internal/state"
)

// File is one downloadable artifact of a release.
type File struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	PackageType string `json:"packagetype"`
	Digests     struct {
		SHA256 string `json:"sha256"`
	} `json:"digests"`
}

// Project is the decoded metadata document for one package.
type Project struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Summary string `json:"summary"`
	} `json:"info"`
	Releases map[string][]File `json:"releases"`
}

// Release is a resolved (version, artifact) pair ready to download.
type Release struct {
	Version string
	File    File
}

// Client queries one package index.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a client for the index rooted at baseURL. A nil
// httpClient selects a default with a 30 second overall timeout; metadata
// documents are small, so a whole-request timeout is fine here.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

// token returns the cached index token, if one was provided this session.
func token() string {
	if tok := state.TokenCache.Get(); tok != nil {
		defer func() {
			for i := range tok {
				tok[i] = 0
			}
		}()
		return string(tok)
	}
	return ""
}

// Project fetches and decodes the metadata document for pkg.
func (c *Client) Project(ctx context.Context, pkg string) (*Project, error) {
	url := fmt.Sprintf("%s/%s/json", trimSlash(c.BaseURL), pkg)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if tok := token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decoding
	case http.StatusNotFound:
		return nil, fmt.Errorf("package %q not found on index %s", pkg, c.BaseURL)
	default:
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	var p Project
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding metadata for %q: %w", pkg, err)
	}
	return &p, nil
}

// Resolve picks the artifact to install. An empty or "latest" version
// selects the highest stable release; a pinned version is honored exactly,
// pre-release or not. Source distributions are preferred over wheels.
func (c *Client) Resolve(ctx context.Context, pkg, version string) (*Release, error) {
	p, err := c.Project(ctx, pkg)
	if err != nil {
		return nil, err
	}

	if version == "" || version == "latest" {
		best := ""
		for v, files := range p.Releases {
			if len(files) == 0 || isPrerelease(v) {
				continue
			}
			if best == "" || compareVersions(v, best) > 0 {
				best = v
			}
		}
		if best == "" {
			return nil, fmt.Errorf("no stable releases of %q on the index (pin a version to install a pre-release)", pkg)
		}
		version = best
	}

	files, ok := p.Releases[version]
	if !ok || len(files) == 0 {
		return nil, fmt.Errorf("version %s of %q not found on the index", version, pkg)
	}
	return &Release{Version: version, File: pickArtifact(files)}, nil
}

// pickArtifact prefers the sdist; unpacking a source tree is what the local
// data workflows want. Falls back to the first artifact.
func pickArtifact(files []File) File {
	for _, f := range files {
		if f.PackageType == "sdist" {
			return f
		}
	}
	return files[0]
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
