// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package testutil provides fake remote endpoints for tests: an in-process
// package index speaking the JSON metadata API, a raw-file server, and an
// archive server. All of them are httptest-backed and shut down with the
// test.
package testutil

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/jmborr/qefdata/internal/db"
)

// WithCatalog points the db package helpers at a fresh in-memory catalog for
// the duration of fn. The shared-cache DSN keeps the schema visible across
// the pooled connections.
func WithCatalog(t *testing.T, fn func()) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	if err := db.InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	fn()
}

// TempDataDir creates a throwaway local data directory.
func TempDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating data dir: %v", err)
	}
	return dir
}

// SHA256Hex returns the hex checksum of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// TarGz builds a gzip-compressed tarball of name -> content entries. Names
// use forward slashes relative to the archive root.
func TarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("writing tar body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf.Bytes()
}

// fakeArtifact is one release file the fake index serves.
type fakeArtifact struct {
	filename    string
	packageType string
	blob        []byte
}

// FakeIndex is an in-process package index. It answers the metadata endpoint
// GET /<package>/json and serves artifact downloads under /files/.
type FakeIndex struct {
	Package string

	srv      *httptest.Server
	token    string
	releases map[string][]fakeArtifact
}

// NewFakeIndex starts a fake index for one package.
func NewFakeIndex(t *testing.T, pkg string) *FakeIndex {
	t.Helper()
	f := &FakeIndex{Package: pkg, releases: map[string][]fakeArtifact{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

// URL is the index base URL clients point at.
func (f *FakeIndex) URL() string { return f.srv.URL }

// Client returns an HTTP client wired to the fake server.
func (f *FakeIndex) Client() *http.Client { return f.srv.Client() }

// RequireToken makes every endpoint demand the given bearer token.
func (f *FakeIndex) RequireToken(tok string) { f.token = tok }

// AddSdist registers a source distribution for version, packaged as a
// tarball with the conventional <pkg>-<version>/ root directory.
func (f *FakeIndex) AddSdist(t *testing.T, version string, files map[string]string) {
	t.Helper()
	rooted := make(map[string]string, len(files))
	root := fmt.Sprintf("%s-%s", f.Package, version)
	for name, body := range files {
		rooted[root+"/"+name] = body
	}
	blob := TarGz(t, rooted)
	f.releases[version] = append(f.releases[version], fakeArtifact{
		filename:    root + ".tar.gz",
		packageType: "sdist",
		blob:        blob,
	})
}

// AddWheel registers a (placeholder) binary artifact for version.
func (f *FakeIndex) AddWheel(t *testing.T, version string, blob []byte) {
	t.Helper()
	f.releases[version] = append(f.releases[version], fakeArtifact{
		filename:    fmt.Sprintf("%s-%s-py3-none-any.whl", f.Package, version),
		packageType: "bdist_wheel",
		blob:        blob,
	})
}

func (f *FakeIndex) handle(w http.ResponseWriter, r *http.Request) {
	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/"+f.Package+"/json":
		f.serveMetadata(w)
	case strings.HasPrefix(r.URL.Path, "/files/"):
		f.serveFile(w, r, strings.TrimPrefix(r.URL.Path, "/files/"))
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeIndex) serveMetadata(w http.ResponseWriter) {
	type jsonFile struct {
		Filename    string `json:"filename"`
		URL         string `json:"url"`
		Size        int64  `json:"size"`
		PackageType string `json:"packagetype"`
		Digests     struct {
			SHA256 string `json:"sha256"`
		} `json:"digests"`
	}
	doc := struct {
		Info struct {
			Name    string `json:"name"`
			Version string `json:"version"`
			Summary string `json:"summary"`
		} `json:"info"`
		Releases map[string][]jsonFile `json:"releases"`
	}{}
	doc.Info.Name = f.Package
	doc.Info.Summary = "fake package for tests"
	doc.Releases = map[string][]jsonFile{}
	for v, arts := range f.releases {
		if doc.Info.Version == "" || v > doc.Info.Version {
			doc.Info.Version = v
		}
		for _, a := range arts {
			jf := jsonFile{
				Filename:    a.filename,
				URL:         f.srv.URL + "/files/" + a.filename,
				Size:        int64(len(a.blob)),
				PackageType: a.packageType,
			}
			jf.Digests.SHA256 = SHA256Hex(a.blob)
			doc.Releases[v] = append(doc.Releases[v], jf)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (f *FakeIndex) serveFile(w http.ResponseWriter, r *http.Request, filename string) {
	for _, arts := range f.releases {
		for _, a := range arts {
			if a.filename == filename {
				w.Write(a.blob)
				return
			}
		}
	}
	http.NotFound(w, r)
}

// NewFakeRaw serves repository files by path, the way a raw-file endpoint
// does. Paths use forward slashes without a leading slash.
func NewFakeRaw(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewFakeArchive serves one release archive blob at /<name>.
func NewFakeArchive(t *testing.T, name string, blob []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/") != name {
			http.NotFound(w, r)
			return
		}
		w.Write(blob)
	}))
	t.Cleanup(srv.Close)
	return srv
}
