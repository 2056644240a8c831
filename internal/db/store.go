// Copyright (c) 2025 Jose Borreguero
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/jmborr/qefdata/internal/model"
)

// Store defines the interface for all catalog operations in QEFData.
// This allows for multiple database backends to be implemented.
type Store interface {
	// BunDB exposes the underlying Bun handle for low-level helpers such as
	// the searcher adapters.
	BunDB() *bun.DB

	// Dataset methods
	GetAllDatasets() ([]model.Dataset, error)
	GetActiveDatasets() ([]model.Dataset, error)
	GetDatasetByName(name string) (*model.Dataset, error)
	AddDataset(d model.Dataset) (int, error)
	UpdateDatasetFetched(name, localPath, sha256 string, size int64, source model.SourceKind, fetchedAt time.Time) error
	UpdateDatasetChecksum(name, sha256 string, size int64) error
	UpdateDatasetTags(id int, tags string) error
	ToggleDatasetStatus(id int) error
	DeleteDataset(id int) error

	// Remote methods
	GetAllRemotes() ([]model.Remote, error)
	GetActiveRemoteByKind(kind model.RemoteKind) (*model.Remote, error)
	AddRemote(name string, kind model.RemoteKind, url string) (int, error)
	ToggleRemoteStatus(id int) error
	DeleteRemote(id int) error

	// Snapshot methods
	AddSnapshot(s model.Snapshot) (int, error)
	GetAllSnapshots() ([]model.Snapshot, error)
	GetSnapshotByTag(tag string) (*model.Snapshot, error)

	// Host key methods
	GetKnownHostKey(hostname string) (string, error)
	AddKnownHostKey(hostname, key string) error

	// Audit log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Fetch session methods
	SaveFetchSession(id, dataset, remote string, expiresAt time.Time, status string) error
	GetFetchSession(id string) (*model.FetchSession, error)
	UpdateFetchSessionStatus(id string, status string) error
	DeleteFetchSession(id string) error
	GetExpiredFetchSessions() ([]*model.FetchSession, error)

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}
