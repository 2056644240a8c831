// Copyright (c) 2025 Jose Borreguero
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the catalog data access layer for QEFData.
// This file contains the SQLite implementation of the catalog store.
package db // import "github.com/jmborr/qefdata/internal/db"

import (
	"context"
	"fmt"
	"time"

	"github.com/jmborr/qefdata/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bun *bun.DB
}

// NewSqliteStore returns the active SQLite store. The actual initialization
// happens in InitDB; this is kept for potential future logic specific to the
// store's creation.
func NewSqliteStore(dataSourceName string) (*SqliteStore, error) {
	s, ok := store.(*SqliteStore)
	if !ok {
		return nil, fmt.Errorf("internal error: store is not a *SqliteStore")
	}
	return s, nil
}

// BunDB exposes the underlying Bun handle for low-level helpers.
func (s *SqliteStore) BunDB() *bun.DB {
	return s.bun
}

// GetAllDatasets retrieves all datasets from the catalog.
func (s *SqliteStore) GetAllDatasets() ([]model.Dataset, error) {
	return GetAllDatasetsBun(s.bun)
}

// GetActiveDatasets retrieves all active datasets from the catalog.
func (s *SqliteStore) GetActiveDatasets() ([]model.Dataset, error) {
	return GetActiveDatasetsBun(s.bun)
}

// GetDatasetByName retrieves a single dataset by its unique name.
func (s *SqliteStore) GetDatasetByName(name string) (*model.Dataset, error) {
	return GetDatasetByNameBun(s.bun, name)
}

// AddDataset registers a new dataset in the catalog.
func (s *SqliteStore) AddDataset(d model.Dataset) (int, error) {
	id, err := AddDatasetBun(s.bun, d)
	if err == nil {
		_ = s.LogAction("ADD_DATASET", fmt.Sprintf("dataset: %s", d.Name))
	}
	return id, err
}

// UpdateDatasetFetched records a completed retrieval for the named dataset.
func (s *SqliteStore) UpdateDatasetFetched(name, localPath, sha256 string, size int64, source model.SourceKind, fetchedAt time.Time) error {
	err := UpdateDatasetFetchedBun(s.bun, name, localPath, sha256, size, source, fetchedAt)
	if err == nil {
		_ = s.LogAction("FETCH_DATASET", fmt.Sprintf("dataset: %s, source: %s", name, source))
	}
	return err
}

// UpdateDatasetChecksum sets a new checksum and size for the named dataset.
func (s *SqliteStore) UpdateDatasetChecksum(name, sha256 string, size int64) error {
	err := UpdateDatasetChecksumBun(s.bun, name, sha256, size)
	if err == nil {
		_ = s.LogAction("UPDATE_CHECKSUM", fmt.Sprintf("dataset: %s", name))
	}
	return err
}

// UpdateDatasetTags updates the tags for a given dataset.
func (s *SqliteStore) UpdateDatasetTags(id int, tags string) error {
	err := UpdateDatasetTagsBun(s.bun, id, tags)
	if err == nil {
		_ = s.LogAction("UPDATE_DATASET_TAGS", fmt.Sprintf("dataset_id: %d, new_tags: '%s'", id, tags))
	}
	return err
}

// ToggleDatasetStatus flips the active status of a dataset.
func (s *SqliteStore) ToggleDatasetStatus(id int) error {
	// Get dataset details before toggling for logging.
	var row struct {
		Name     string `bun:"name"`
		IsActive bool   `bun:"is_active"`
	}
	err := QueryRawInto(context.Background(), s.bun, &row, "SELECT name, is_active FROM datasets WHERE id = ?", id)
	if err != nil {
		return err // If we can't find it, we can't toggle it.
	}

	err = ToggleDatasetStatusBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("TOGGLE_DATASET_STATUS", fmt.Sprintf("dataset: %s, new_status: %t", row.Name, !row.IsActive))
	}
	return err
}

// DeleteDataset removes a dataset record from the catalog. The file on disk
// is not touched; callers decide what happens to local copies.
func (s *SqliteStore) DeleteDataset(id int) error {
	// Get dataset details before deleting for logging.
	var name string
	err := QueryRawInto(context.Background(), s.bun, &name, "SELECT name FROM datasets WHERE id = ?", id)
	details := fmt.Sprintf("id: %d", id)
	if err == nil {
		details = fmt.Sprintf("dataset: %s", name)
	}
	err = DeleteDatasetBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("DELETE_DATASET", details)
	}
	return err
}

// GetAllRemotes retrieves all configured remotes.
func (s *SqliteStore) GetAllRemotes() ([]model.Remote, error) {
	return GetAllRemotesBun(s.bun)
}

// GetActiveRemoteByKind returns the first active remote of the given kind.
func (s *SqliteStore) GetActiveRemoteByKind(kind model.RemoteKind) (*model.Remote, error) {
	return GetActiveRemoteByKindBun(s.bun, kind)
}

// AddRemote registers a new remote endpoint.
func (s *SqliteStore) AddRemote(name string, kind model.RemoteKind, url string) (int, error) {
	id, err := AddRemoteBun(s.bun, name, kind, url)
	if err == nil {
		_ = s.LogAction("ADD_REMOTE", fmt.Sprintf("remote: %s (%s)", name, kind))
	}
	return id, err
}

// ToggleRemoteStatus flips the active status of a remote.
func (s *SqliteStore) ToggleRemoteStatus(id int) error {
	err := ToggleRemoteStatusBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("TOGGLE_REMOTE_STATUS", fmt.Sprintf("remote_id: %d", id))
	}
	return err
}

// DeleteRemote removes a remote from the catalog.
func (s *SqliteStore) DeleteRemote(id int) error {
	// Get remote details before deleting for logging.
	var name string
	err := QueryRawInto(context.Background(), s.bun, &name, "SELECT name FROM remotes WHERE id = ?", id)
	details := fmt.Sprintf("id: %d", id)
	if err == nil {
		details = fmt.Sprintf("remote: %s", name)
	}
	err = DeleteRemoteBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("DELETE_REMOTE", details)
	}
	return err
}

// AddSnapshot records an unpacked release archive.
func (s *SqliteStore) AddSnapshot(snap model.Snapshot) (int, error) {
	id, err := AddSnapshotBun(s.bun, snap)
	if err == nil {
		_ = s.LogAction("UNPACK_SNAPSHOT", fmt.Sprintf("tag: %s, datasets: %d", snap.Tag, snap.DatasetCount))
	}
	return id, err
}

// GetAllSnapshots lists all recorded release snapshots.
func (s *SqliteStore) GetAllSnapshots() ([]model.Snapshot, error) {
	return GetAllSnapshotsBun(s.bun)
}

// GetSnapshotByTag returns the snapshot recorded for a tag.
func (s *SqliteStore) GetSnapshotByTag(tag string) (*model.Snapshot, error) {
	return GetSnapshotByTagBun(s.bun, tag)
}

// GetKnownHostKey retrieves the trusted public key for a given hostname.
func (s *SqliteStore) GetKnownHostKey(hostname string) (string, error) {
	return GetKnownHostKeyBun(s.bun, hostname)
}

// AddKnownHostKey adds a new trusted host key to the catalog.
func (s *SqliteStore) AddKnownHostKey(hostname, key string) error {
	// INSERT OR REPLACE will add the key if it doesn't exist, or update it if it does.
	// This is useful if a mirror is legitimately re-provisioned.
	_, err := ExecRaw(context.Background(), s.bun, "INSERT OR REPLACE INTO known_hosts (hostname, key) VALUES (?, ?)", hostname, key)
	if err == nil {
		_ = s.LogAction("TRUST_HOST", fmt.Sprintf("hostname: %s", hostname))
	}
	return err
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *SqliteStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *SqliteStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// SaveFetchSession saves an in-flight retrieval record.
func (s *SqliteStore) SaveFetchSession(id, dataset, remote string, expiresAt time.Time, status string) error {
	return SaveFetchSessionBun(s.bun, id, dataset, remote, expiresAt, status)
}

// GetFetchSession retrieves a fetch session by ID.
func (s *SqliteStore) GetFetchSession(id string) (*model.FetchSession, error) {
	return GetFetchSessionBun(s.bun, id)
}

// UpdateFetchSessionStatus updates the status of a fetch session.
func (s *SqliteStore) UpdateFetchSessionStatus(id string, status string) error {
	return UpdateFetchSessionStatusBun(s.bun, id, status)
}

// DeleteFetchSession removes a fetch session from the catalog.
func (s *SqliteStore) DeleteFetchSession(id string) error {
	return DeleteFetchSessionBun(s.bun, id)
}

// GetExpiredFetchSessions returns all fetch sessions past their deadline.
func (s *SqliteStore) GetExpiredFetchSessions() ([]*model.FetchSession, error) {
	return GetExpiredFetchSessionsBun(s.bun)
}

// ExportDataForBackup retrieves all data from the catalog for a backup.
// It uses a transaction to ensure a consistent snapshot of the data.
func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the catalog from a backup data structure.
// It performs a full wipe-and-replace within a single transaction to ensure atomicity.
func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

// IntegrateDataFromBackup restores data from a backup in a non-destructive way,
// skipping entries that already exist.
func (s *SqliteStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}
