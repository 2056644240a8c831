// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package inspect

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// groupedSample is a minimal but well-formed grouped file: one group with a
// two-point energy axis.
const groupedSample = `# Number of energy transfer values
2
# Number of group values
1
-119.8
119.8
0.3
# Group 0
0.1 0.01
0.2 0.02
`

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestSniffBytes(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want Format
	}{
		{"hdf5", []byte("\x89HDF\r\n\x1a\nrest"), FormatHDF5},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, FormatGzip},
		{"zip", []byte("PK\x03\x04more"), FormatZip},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x01}, FormatZstd},
		{"grouped", []byte(groupedSample), FormatGroupedASCII},
		{"binary junk", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
		{"plain prose", []byte("hello world\nthis is text\n"), FormatUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SniffBytes(tc.head); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSniffFile(t *testing.T) {
	path := writeTemp(t, "spectrum.dat", []byte(groupedSample))
	format, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if format != FormatGroupedASCII {
		t.Fatalf("expected grouped ASCII, got %v", format)
	}
}

func TestCheckNeXus(t *testing.T) {
	hdf5 := append([]byte("\x89HDF\r\n\x1a\n"), make([]byte, 64)...)

	good := writeTemp(t, "reduced.nxs", hdf5)
	if err := CheckNeXus(good); err != nil {
		t.Fatalf("expected valid NeXus file, got %v", err)
	}

	badExt := writeTemp(t, "reduced.dat", hdf5)
	if err := CheckNeXus(badExt); err == nil || !strings.Contains(err.Error(), "extension is not .nxs") {
		t.Fatalf("expected extension error, got %v", err)
	}

	badContent := writeTemp(t, "fake.nxs", []byte("not hdf5 at all"))
	if err := CheckNeXus(badContent); err == nil || !strings.Contains(err.Error(), "no reader found") {
		t.Fatalf("expected content error, got %v", err)
	}
}

func TestDescribe_GroupedFile(t *testing.T) {
	path := writeTemp(t, "spectrum.dat", []byte(groupedSample))

	info, err := Describe(path)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if info.Format != FormatGroupedASCII {
		t.Fatalf("expected grouped ASCII, got %v", info.Format)
	}
	if info.Size != int64(len(groupedSample)) {
		t.Fatalf("expected size %d, got %d", len(groupedSample), info.Size)
	}
	sum := sha256.Sum256([]byte(groupedSample))
	if info.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected sha256: %s", info.SHA256)
	}
	if info.Grouped == nil {
		t.Fatalf("expected parsed grouped data, parse error: %s", info.ParseError)
	}
	if info.Grouped.NumGroups() != 1 {
		t.Fatalf("expected 1 group, got %d", info.Grouped.NumGroups())
	}
	// energies arrive converted to meV
	if lo, hi := info.Grouped.XRange(); math.Abs(lo-(-0.1198)) > 1e-9 || math.Abs(hi-0.1198) > 1e-9 {
		t.Fatalf("unexpected converted energy range: %v..%v", lo, hi)
	}
}

func TestDescribe_NeXusMismatch(t *testing.T) {
	path := writeTemp(t, "fake.nxs", []byte(groupedSample))

	if _, err := Describe(path); err == nil || !strings.Contains(err.Error(), "no reader found") {
		t.Fatalf("expected content mismatch error for .nxs, got %v", err)
	}
}

func TestDescribe_MalformedGrouped(t *testing.T) {
	// Preamble sniffs as grouped but the data rows are short.
	bad := "# header\n3\n1\n-1.0\n0.0\n1.0\n0.5\n0.1 0.01\n"
	path := writeTemp(t, "broken.dat", []byte(bad))

	info, err := Describe(path)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if info.Format != FormatGroupedASCII {
		t.Fatalf("expected grouped ASCII, got %v", info.Format)
	}
	if info.Grouped != nil || info.ParseError == "" {
		t.Fatalf("expected parse error for malformed file, got grouped=%v err=%q", info.Grouped, info.ParseError)
	}
}
