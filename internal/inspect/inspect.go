// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package inspect identifies and summarizes dataset files without pulling in
// format-specific parsing libraries. HDF5 (NeXus) files are recognized by
// signature only; grouped ASCII files are parsed via the dave subpackage.
package inspect

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmborr/qefdata/internal/inspect/dave"
)

// Format classifies a dataset file by its leading bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatHDF5
	FormatGroupedASCII
	FormatGzip
	FormatZip
	FormatZstd
)

// String returns the display name of the format.
func (f Format) String() string {
	switch f {
	case FormatHDF5:
		return "HDF5"
	case FormatGroupedASCII:
		return "grouped ASCII"
	case FormatGzip:
		return "gzip archive"
	case FormatZip:
		return "zip archive"
	case FormatZstd:
		return "zstd frame"
	default:
		return "unknown"
	}
}

// hdf5Magic is the 8-byte signature every HDF5 file starts with.
var hdf5Magic = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// sniffLen is how much of the file head the probes look at.
const sniffLen = 512

// Sniff reads the head of the file at path and classifies it.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	return SniffBytes(head[:n]), nil
}

// SniffBytes classifies a file head already in memory.
func SniffBytes(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, hdf5Magic):
		return FormatHDF5
	case bytes.HasPrefix(head, []byte{0x1f, 0x8b}):
		return FormatGzip
	case bytes.HasPrefix(head, []byte("PK\x03\x04")) || bytes.HasPrefix(head, []byte("PK\x05\x06")):
		return FormatZip
	case bytes.HasPrefix(head, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return FormatZstd
	case looksGrouped(head):
		return FormatGroupedASCII
	default:
		return FormatUnknown
	}
}

// looksGrouped reports whether the head matches the structural preamble of a
// DAVE grouped file: a leading '#' comment followed by two positive integer
// counts on their own lines.
func looksGrouped(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(head))
	sawComment := false
	counts := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			sawComment = true
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			return false
		}
		counts++
		if counts == 2 {
			return sawComment
		}
	}
	return false
}

// CheckNeXus validates that path looks like a Mantid-processed NeXus file:
// the .nxs extension paired with HDF5 content. Parsing the workspace itself
// is left to the analysis tools downstream.
func CheckNeXus(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".nxs") {
		return fmt.Errorf("file extension is not .nxs: %s", path)
	}
	format, err := Sniff(path)
	if err != nil {
		return err
	}
	if format != FormatHDF5 {
		return fmt.Errorf("no reader found for file %s: content is not HDF5", path)
	}
	return nil
}

// Info is the inspection summary for one file.
type Info struct {
	Path   string
	Format Format
	Size   int64
	SHA256 string
	// Grouped is filled for grouped ASCII files that parse cleanly;
	// ParseError carries the parse failure otherwise.
	Grouped    *dave.Grouped
	ParseError string
}

// Describe opens the file at path, classifies it, hashes it, and for grouped
// ASCII files parses the axes so callers can summarize the spectra.
func Describe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	h := sha256.New()
	h.Write(head)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	info := &Info{
		Path:   path,
		Format: SniffBytes(head),
		Size:   st.Size(),
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}

	// A .nxs name promises HDF5 content; a mismatch is a broken dataset,
	// not a classification result.
	if strings.EqualFold(filepath.Ext(path), ".nxs") && info.Format != FormatHDF5 {
		return nil, fmt.Errorf("no reader found for file %s: content is not HDF5", path)
	}

	if info.Format == FormatGroupedASCII {
		g, err := dave.ParseFile(path, true)
		if err != nil {
			info.ParseError = err.Error()
		} else {
			info.Grouped = g
		}
	}
	return info, nil
}
