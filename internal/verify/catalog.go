// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package verify

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/logging"
	"github.com/jmborr/qefdata/internal/model"
)

// CatalogOptions controls catalog verification.
type CatalogOptions struct {
	// MarkInactive deactivates datasets whose local copy is missing or has
	// drifted from the recorded checksum.
	MarkInactive bool
}

// Catalog recomputes the checksum of every fetched dataset and compares it
// against the catalog record. Datasets that were never fetched are not
// checked.
func Catalog(opts CatalogOptions) (*model.VerifyReport, error) {
	datasets, err := db.GetAllDatasets()
	if err != nil {
		return nil, err
	}

	report := &model.VerifyReport{}
	for _, ds := range datasets {
		if !ds.Fetched() {
			continue
		}
		r := checkDataset(ds)
		report.Add(r)
		if r.Status == model.FileOK || !opts.MarkInactive || !ds.IsActive {
			continue
		}
		if err := db.ToggleDatasetStatus(ds.ID); err != nil {
			return nil, err
		}
		logging.Warnf("dataset %s failed verification (%s), marked inactive", ds.Name, r.Status)
	}
	return report, nil
}

func checkDataset(ds model.Dataset) model.FileReport {
	r := model.FileReport{Name: ds.Name, Expected: ds.SHA256}
	if _, err := os.Stat(ds.LocalPath); errors.Is(err, fs.ErrNotExist) {
		r.Status = model.FileMissing
		return r
	}
	sum, size, err := sha256File(ds.LocalPath)
	if err != nil {
		r.Status = model.FileModified
		return r
	}
	r.Actual = sum
	if sum != ds.SHA256 || (ds.Size > 0 && size != ds.Size) {
		r.Status = model.FileModified
		return r
	}
	r.Status = model.FileOK
	return r
}
