// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// Package uiadapters provides thin, canonical adapters that adapt package-level
// `internal/db` helpers to the `ui.Store` interface used by UI layers (TUI/CLI).
//
// These adapters are intentionally thin delegators: behavior remains in
// `internal/db` and other authoritative packages.
package uiadapters

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
)

// storeAdapter adapts package-level db helpers to the `ui.Store` interface so
// views share a single implementation instead of importing internal/db.
type storeAdapter struct{}

func (s *storeAdapter) GetAllDatasets() ([]model.Dataset, error)    { return db.GetAllDatasets() }
func (s *storeAdapter) GetActiveDatasets() ([]model.Dataset, error) { return db.GetActiveDatasets() }
func (s *storeAdapter) GetDatasetByName(name string) (*model.Dataset, error) {
	return db.GetDatasetByName(name)
}
func (s *storeAdapter) AddDataset(d model.Dataset) (int, error) { return db.AddDataset(d) }
func (s *storeAdapter) UpdateDatasetTags(id int, tags string) error {
	return db.UpdateDatasetTags(id, tags)
}
func (s *storeAdapter) ToggleDatasetStatus(id int) error { return db.ToggleDatasetStatus(id) }
func (s *storeAdapter) DeleteDataset(id int) error       { return db.DeleteDataset(id) }
func (s *storeAdapter) MarkDatasetFetched(name, localPath, sha256 string, size int64, source model.SourceKind) error {
	return db.UpdateDatasetFetched(name, localPath, sha256, size, source, time.Now())
}

func (s *storeAdapter) GetAllRemotes() ([]model.Remote, error) { return db.GetAllRemotes() }
func (s *storeAdapter) GetActiveRemoteByKind(kind model.RemoteKind) (*model.Remote, error) {
	return db.GetActiveRemoteByKind(kind)
}
func (s *storeAdapter) AddRemote(name string, kind model.RemoteKind, url string) (int, error) {
	return db.AddRemote(name, kind, url)
}
func (s *storeAdapter) ToggleRemoteStatus(id int) error { return db.ToggleRemoteStatus(id) }
func (s *storeAdapter) DeleteRemote(id int) error       { return db.DeleteRemote(id) }

func (s *storeAdapter) GetAllSnapshots() ([]model.Snapshot, error) { return db.GetAllSnapshots() }
func (s *storeAdapter) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return db.GetAllAuditLogEntries()
}
func (s *storeAdapter) LogAction(action, details string) error { return db.LogAction(action, details) }

func (s *storeAdapter) ExportDataForBackup() (*model.BackupData, error) {
	return db.ExportDataForBackup()
}
func (s *storeAdapter) ImportDataFromBackup(backup *model.BackupData) error {
	return db.ImportDataFromBackup(backup)
}
func (s *storeAdapter) IntegrateDataFromBackup(backup *model.BackupData) error {
	return db.IntegrateDataFromBackup(backup)
}

// FindDatasetByIdentifier resolves a dataset by catalog id or by name.
func (s *storeAdapter) FindDatasetByIdentifier(identifier string) (*model.Dataset, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty identifier")
	}
	if id, err := strconv.Atoi(identifier); err == nil {
		datasets, err := db.GetAllDatasets()
		if err != nil {
			return nil, err
		}
		for _, d := range datasets {
			if d.ID == id {
				dd := d
				return &dd, nil
			}
		}
	}
	if d, err := db.GetDatasetByName(identifier); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("dataset not found: %s", identifier)
}

// ensure storeAdapter satisfies ui.Store at compile time
var _ ui.Store = (*storeAdapter)(nil)

// NewStoreAdapter returns a thin adapter implementing `ui.Store` that
// delegates to package-level `internal/db` helpers.
func NewStoreAdapter() ui.Store { return &storeAdapter{} }
