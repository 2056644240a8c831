// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package ui

import "github.com/jmborr/qefdata/internal/model"

// DatasetSearcher provides a small abstraction for searching datasets.
type DatasetSearcher interface {
	SearchDatasets(q string) ([]model.Dataset, error)
}

// AuditSearcher provides a small abstraction for retrieving audit log entries.
type AuditSearcher interface {
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
}

// Store is the catalog surface UIs consume, so views never import internal/db
// directly. internal/uiadapters provides the canonical implementation.
type Store interface {
	GetAllDatasets() ([]model.Dataset, error)
	GetActiveDatasets() ([]model.Dataset, error)
	GetDatasetByName(name string) (*model.Dataset, error)
	FindDatasetByIdentifier(identifier string) (*model.Dataset, error)
	AddDataset(d model.Dataset) (int, error)
	UpdateDatasetTags(id int, tags string) error
	ToggleDatasetStatus(id int) error
	DeleteDataset(id int) error
	MarkDatasetFetched(name, localPath, sha256 string, size int64, source model.SourceKind) error

	GetAllRemotes() ([]model.Remote, error)
	GetActiveRemoteByKind(kind model.RemoteKind) (*model.Remote, error)
	AddRemote(name string, kind model.RemoteKind, url string) (int, error)
	ToggleRemoteStatus(id int) error
	DeleteRemote(id int) error

	GetAllSnapshots() ([]model.Snapshot, error)
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action, details string) error

	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}
