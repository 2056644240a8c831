// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/jmborr/qefdata/internal/logging"
)

// UnpackedFile describes one file extracted from a snapshot archive.
type UnpackedFile struct {
	// Name is the repository-relative path after top-level stripping.
	Name      string
	LocalPath string
	SHA256    string
	Size      int64
}

// SnapshotResult reports a downloaded and unpacked release archive.
type SnapshotResult struct {
	Files         []UnpackedFile
	ArchiveSHA256 string
	ArchiveSize   int64
}

// SnapshotOptions configures DownloadSnapshot.
type SnapshotOptions struct {
	// URL points at a tar.gz or zip archive of the repository at some tag.
	URL     string
	DestDir string
	// KeepRoot preserves the archive's top-level directory. By default a
	// single shared root (the "project-1.2.3/" wrapper release archives
	// carry) is stripped so datasets land at their repository paths.
	KeepRoot bool
	// WantSHA256, when known, must match the downloaded archive or the
	// unpack never starts.
	WantSHA256 string
	Token      string
	Progress   Progress
	Client     *http.Client
}

// ExpandArchiveURL fills a snapshot URL template with the requested ref.
// The first "%s" placeholder receives the ref; a template without one is
// returned unchanged (a direct archive link).
func ExpandArchiveURL(template, ref string) string {
	return strings.Replace(template, "%s", ref, 1)
}

// DownloadSnapshot fetches a release archive and unpacks it under DestDir.
// Entries that would escape the destination, and symlink or hardlink
// entries, abort the unpack.
func DownloadSnapshot(ctx context.Context, opts SnapshotOptions) (*SnapshotResult, error) {
	tmpDir, err := os.MkdirTemp("", "qefdata-snapshot-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, "snapshot")
	sum, size, err := downloadFile(ctx, opts.Client, opts.URL, archivePath, opts.Token, opts.WantSHA256, opts.Progress)
	if err != nil {
		return nil, err
	}
	logging.Debugf("snapshot downloaded: %d bytes, sha256 %s", size, sum)

	head := make([]byte, 4)
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	n, _ := io.ReadFull(f, head)
	f.Close()

	var files []UnpackedFile
	switch {
	case bytes.HasPrefix(head[:n], []byte{0x1f, 0x8b}):
		files, err = unpackTarGz(archivePath, opts.DestDir, opts.KeepRoot)
	case bytes.HasPrefix(head[:n], []byte("PK")):
		files, err = unpackZip(archivePath, opts.DestDir, opts.KeepRoot)
	default:
		err = fmt.Errorf("unsupported archive format at %s", opts.URL)
	}
	if err != nil {
		return nil, err
	}

	return &SnapshotResult{Files: files, ArchiveSHA256: sum, ArchiveSize: size}, nil
}

// unpackTarGz extracts a gzip-compressed tarball. The stream is walked twice:
// once to decide whether all entries share a single top-level directory, and
// once to extract.
func unpackTarGz(archivePath, destDir string, keepRoot bool) ([]UnpackedFile, error) {
	topDir := ""
	if !keepRoot {
		var err error
		topDir, err = tarTopDir(archivePath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	var files []UnpackedFile
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}

		name := stripTop(hdr.Name, topDir)
		if name == "" {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			dir, err := safeJoin(destDir, name)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			uf, err := writeEntry(destDir, name, tr)
			if err != nil {
				return nil, err
			}
			files = append(files, uf)
		case tar.TypeSymlink, tar.TypeLink:
			return nil, fmt.Errorf("refusing to unpack link entry %q", hdr.Name)
		default:
			// pax headers and other metadata entries carry no file content
		}
	}
	return files, nil
}

// tarTopDir returns the single directory all entries live under, or "" if
// the entries do not share one.
func tarTopDir(archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	top := ""
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}
		first := firstComponent(hdr.Name)
		if first == "" {
			continue
		}
		// Never treat traversal components as a strippable root; leave
		// them for safeJoin to reject.
		if first == ".." || first == "." {
			return "", nil
		}
		if top == "" {
			top = first
		} else if top != first {
			return "", nil
		}
	}
	return top, nil
}

// unpackZip extracts a zip archive with the same guards as unpackTarGz.
func unpackZip(archivePath, destDir string, keepRoot bool) ([]UnpackedFile, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening zip archive: %w", err)
	}
	defer zr.Close()

	topDir := ""
	if !keepRoot {
		for _, zf := range zr.File {
			first := firstComponent(zf.Name)
			if first == "" {
				continue
			}
			// Never treat traversal components as a strippable root;
			// leave them for safeJoin to reject.
			if first == ".." || first == "." {
				topDir = ""
				break
			}
			if topDir == "" {
				topDir = first
			} else if topDir != first {
				topDir = ""
				break
			}
		}
	}

	var files []UnpackedFile
	for _, zf := range zr.File {
		if zf.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("refusing to unpack link entry %q", zf.Name)
		}

		name := stripTop(zf.Name, topDir)
		if name == "" {
			continue
		}

		if zf.FileInfo().IsDir() {
			dir, err := safeJoin(destDir, name)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		uf, err := writeEntry(destDir, name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, uf)
	}
	return files, nil
}

// writeEntry streams one archive entry to disk, hashing while writing.
func writeEntry(destDir, name string, r io.Reader) (UnpackedFile, error) {
	dest, err := safeJoin(destDir, name)
	if err != nil {
		return UnpackedFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return UnpackedFile{}, err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return UnpackedFile{}, err
	}

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, h), r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return UnpackedFile{}, err
	}

	return UnpackedFile{
		Name:      filepath.ToSlash(name),
		LocalPath: dest,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		Size:      size,
	}, nil
}

// safeJoin joins name under dest, rejecting absolute names and traversal.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return filepath.Join(dest, cleaned), nil
}

// stripTop removes the leading path component top from name. It returns ""
// for the top directory itself and for empty names.
func stripTop(name, top string) string {
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return ""
	}
	if top == "" {
		return name
	}
	if name == top {
		return ""
	}
	if strings.HasPrefix(name, top+"/") {
		return name[len(top)+1:]
	}
	return name
}

// firstComponent returns the leading path element of an archive entry name.
func firstComponent(name string) string {
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
