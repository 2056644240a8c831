// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/testutil"
)

// registerFetched records a dataset in the catalog as fetched to localPath
// with the given recorded checksum.
func registerFetched(t *testing.T, name, localPath, sha string, size int64) {
	t.Helper()
	if _, err := db.AddDataset(model.Dataset{Name: name, Kind: model.KindAscii}); err != nil {
		t.Fatalf("AddDataset(%s): %v", name, err)
	}
	if err := db.UpdateDatasetFetched(name, localPath, sha, size, model.SourceRaw, time.Now()); err != nil {
		t.Fatalf("UpdateDatasetFetched(%s): %v", name, err)
	}
}

func TestCatalog(t *testing.T) {
	testutil.WithCatalog(t, func() {
		dir := t.TempDir()

		good := filepath.Join(dir, "good.dat")
		if err := os.WriteFile(good, []byte("intact"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		sum := sha256.Sum256([]byte("intact"))
		registerFetched(t, "io/good.dat", good, hex.EncodeToString(sum[:]), int64(len("intact")))

		drift := filepath.Join(dir, "drift.dat")
		if err := os.WriteFile(drift, []byte("changed on disk"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		registerFetched(t, "io/drift.dat", drift, hex.EncodeToString(sum[:]), int64(len("intact")))

		registerFetched(t, "io/gone.dat", filepath.Join(dir, "gone.dat"), hex.EncodeToString(sum[:]), 6)

		// Never fetched: must not appear in the report.
		if _, err := db.AddDataset(model.Dataset{Name: "io/pending.dat", Kind: model.KindNexus}); err != nil {
			t.Fatalf("AddDataset: %v", err)
		}

		report, err := Catalog(CatalogOptions{})
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if report.Checked != 3 {
			t.Fatalf("expected 3 checked datasets, got %d (%s)", report.Checked, report.Summary())
		}
		st := statuses(report)
		if st["io/good.dat"] != model.FileOK {
			t.Errorf("io/good.dat = %s, want ok", st["io/good.dat"])
		}
		if st["io/drift.dat"] != model.FileModified {
			t.Errorf("io/drift.dat = %s, want modified", st["io/drift.dat"])
		}
		if st["io/gone.dat"] != model.FileMissing {
			t.Errorf("io/gone.dat = %s, want missing", st["io/gone.dat"])
		}

		// Without MarkInactive nothing is deactivated.
		ds, err := db.GetDatasetByName("io/drift.dat")
		if err != nil || ds == nil {
			t.Fatalf("GetDatasetByName: %v", err)
		}
		if !ds.IsActive {
			t.Fatalf("dataset deactivated without MarkInactive")
		}

		if _, err := Catalog(CatalogOptions{MarkInactive: true}); err != nil {
			t.Fatalf("Catalog with MarkInactive failed: %v", err)
		}
		for name, wantActive := range map[string]bool{
			"io/good.dat":  true,
			"io/drift.dat": false,
			"io/gone.dat":  false,
		} {
			ds, err := db.GetDatasetByName(name)
			if err != nil || ds == nil {
				t.Fatalf("GetDatasetByName(%s): %v", name, err)
			}
			if ds.IsActive != wantActive {
				t.Errorf("%s active = %v, want %v", name, ds.IsActive, wantActive)
			}
		}

		// A second MarkInactive run must not flip them back.
		if _, err := Catalog(CatalogOptions{MarkInactive: true}); err != nil {
			t.Fatalf("Catalog rerun failed: %v", err)
		}
		ds, err = db.GetDatasetByName("io/drift.dat")
		if err != nil || ds == nil {
			t.Fatalf("GetDatasetByName: %v", err)
		}
		if ds.IsActive {
			t.Fatalf("inactive dataset reactivated by rerun")
		}
	})
}
