// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// Package verify checks local data against the shipped manifest and the
// catalog, and probes the documented retrieval channels (doctor).
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmborr/qefdata/internal/model"
)

// ManifestName is the file name of the integrity manifest shipped at the root
// of the data repository.
const ManifestName = "qefdata-manifest.yaml"

// ManifestEntry describes one dataset in the manifest.
type ManifestEntry struct {
	Name   string `yaml:"name"`
	SHA256 string `yaml:"sha256"`
	Size   int64  `yaml:"size,omitempty"`
}

// Manifest lists the datasets of the data repository with their checksums.
type Manifest struct {
	Version int             `yaml:"version"`
	Files   []ManifestEntry `yaml:"files"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Entry returns the manifest entry for name, or nil.
func (m *Manifest) Entry(name string) *ManifestEntry {
	for i := range m.Files {
		if m.Files[i].Name == name {
			return &m.Files[i]
		}
	}
	return nil
}

// Verify checks every manifest entry against the files under dir and reports
// files present on disk that the manifest does not list. Hidden files and
// directories (leading dot, e.g. .git) are ignored.
func (m *Manifest) Verify(dir string) (*model.VerifyReport, error) {
	report := &model.VerifyReport{}
	listed := make(map[string]bool, len(m.Files))

	for _, e := range m.Files {
		listed[e.Name] = true
		report.Add(checkEntry(dir, e))
	}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName || listed[rel] {
			return nil
		}
		report.Add(model.FileReport{Name: rel, Status: model.FileExtra})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return report, nil
}

func checkEntry(dir string, e ManifestEntry) model.FileReport {
	r := model.FileReport{Name: e.Name, Expected: e.SHA256}
	p := filepath.Join(dir, filepath.FromSlash(e.Name))
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		r.Status = model.FileMissing
		return r
	}
	if err != nil || fi.IsDir() {
		r.Status = model.FileModified
		return r
	}
	sum, _, err := sha256File(p)
	if err != nil {
		r.Status = model.FileModified
		return r
	}
	r.Actual = sum
	if !strings.EqualFold(sum, e.SHA256) || (e.Size > 0 && fi.Size() != e.Size) {
		r.Status = model.FileModified
		return r
	}
	r.Status = model.FileOK
	return r
}

// BuildManifest hashes every visible file under dir and returns a fresh
// manifest for it. The manifest file itself is excluded.
func BuildManifest(dir string) (*Manifest, error) {
	m := &Manifest{Version: 1}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName {
			return nil
		}
		sum, size, err := sha256File(p)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, ManifestEntry{Name: rel, SHA256: sum, Size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Name < m.Files[j].Name })
	return m, nil
}

func sha256File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
