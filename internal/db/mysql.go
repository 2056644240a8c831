// Copyright (c) 2025 Jose Borreguero
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the catalog data access layer for QEFData.
// This file contains the MySQL implementation of the catalog store. MySQL is
// the least exercised backend; the DSN should include `?parseTime=true` so
// DATETIME columns scan into time.Time correctly.
package db // import "github.com/jmborr/qefdata/internal/db"

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jmborr/qefdata/internal/model"
	"github.com/uptrace/bun"
)

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	bun *bun.DB
}

// NewMySQLStore returns the active MySQL store. The actual initialization
// happens in InitDB.
func NewMySQLStore(dataSourceName string) (*MySQLStore, error) {
	s, ok := store.(*MySQLStore)
	if !ok {
		return nil, fmt.Errorf("internal error: store is not a *MySQLStore")
	}
	return s, nil
}

// BunDB exposes the underlying Bun handle for low-level helpers.
func (s *MySQLStore) BunDB() *bun.DB {
	return s.bun
}

// GetAllDatasets retrieves all datasets from the catalog.
func (s *MySQLStore) GetAllDatasets() ([]model.Dataset, error) {
	return GetAllDatasetsBun(s.bun)
}

// GetActiveDatasets retrieves all active datasets from the catalog.
func (s *MySQLStore) GetActiveDatasets() ([]model.Dataset, error) {
	return GetActiveDatasetsBun(s.bun)
}

// GetDatasetByName retrieves a single dataset by its unique name.
func (s *MySQLStore) GetDatasetByName(name string) (*model.Dataset, error) {
	return GetDatasetByNameBun(s.bun, name)
}

// AddDataset registers a new dataset in the catalog.
func (s *MySQLStore) AddDataset(d model.Dataset) (int, error) {
	id, err := AddDatasetBun(s.bun, d)
	if err == nil {
		_ = s.LogAction("ADD_DATASET", fmt.Sprintf("dataset: %s", d.Name))
	}
	return id, err
}

// UpdateDatasetFetched records a completed retrieval for the named dataset.
func (s *MySQLStore) UpdateDatasetFetched(name, localPath, sha256 string, size int64, source model.SourceKind, fetchedAt time.Time) error {
	err := UpdateDatasetFetchedBun(s.bun, name, localPath, sha256, size, source, fetchedAt)
	if err == nil {
		_ = s.LogAction("FETCH_DATASET", fmt.Sprintf("dataset: %s, source: %s", name, source))
	}
	return err
}

// UpdateDatasetChecksum sets a new checksum and size for the named dataset.
func (s *MySQLStore) UpdateDatasetChecksum(name, sha256 string, size int64) error {
	err := UpdateDatasetChecksumBun(s.bun, name, sha256, size)
	if err == nil {
		_ = s.LogAction("UPDATE_CHECKSUM", fmt.Sprintf("dataset: %s", name))
	}
	return err
}

// UpdateDatasetTags updates the tags for a given dataset.
func (s *MySQLStore) UpdateDatasetTags(id int, tags string) error {
	err := UpdateDatasetTagsBun(s.bun, id, tags)
	if err == nil {
		_ = s.LogAction("UPDATE_DATASET_TAGS", fmt.Sprintf("dataset_id: %d, new_tags: '%s'", id, tags))
	}
	return err
}

// ToggleDatasetStatus flips the active status of a dataset.
func (s *MySQLStore) ToggleDatasetStatus(id int) error {
	var row struct {
		Name     string `bun:"name"`
		IsActive bool   `bun:"is_active"`
	}
	err := QueryRawInto(context.Background(), s.bun, &row, "SELECT name, is_active FROM datasets WHERE id = ?", id)
	if err != nil {
		return err
	}

	err = ToggleDatasetStatusBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("TOGGLE_DATASET_STATUS", fmt.Sprintf("dataset: %s, new_status: %t", row.Name, !row.IsActive))
	}
	return err
}

// DeleteDataset removes a dataset record from the catalog.
func (s *MySQLStore) DeleteDataset(id int) error {
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
func (s *MySQLStore) GetAllRemotes() ([]model.Remote, error) {
	return GetAllRemotesBun(s.bun)
}

// GetActiveRemoteByKind returns the first active remote of the given kind.
func (s *MySQLStore) GetActiveRemoteByKind(kind model.RemoteKind) (*model.Remote, error) {
	return GetActiveRemoteByKindBun(s.bun, kind)
}

// AddRemote registers a new remote endpoint.
func (s *MySQLStore) AddRemote(name string, kind model.RemoteKind, url string) (int, error) {
	id, err := AddRemoteBun(s.bun, name, kind, url)
	if err == nil {
		_ = s.LogAction("ADD_REMOTE", fmt.Sprintf("remote: %s (%s)", name, kind))
	}
	return id, err
}

// ToggleRemoteStatus flips the active status of a remote.
func (s *MySQLStore) ToggleRemoteStatus(id int) error {
	err := ToggleRemoteStatusBun(s.bun, id)
	if err == nil {
		_ = s.LogAction("TOGGLE_REMOTE_STATUS", fmt.Sprintf("remote_id: %d", id))
	}
	return err
}

// DeleteRemote removes a remote from the catalog.
func (s *MySQLStore) DeleteRemote(id int) error {
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
func (s *MySQLStore) AddSnapshot(snap model.Snapshot) (int, error) {
	id, err := AddSnapshotBun(s.bun, snap)
	if err == nil {
		_ = s.LogAction("UNPACK_SNAPSHOT", fmt.Sprintf("tag: %s, datasets: %d", snap.Tag, snap.DatasetCount))
	}
	return id, err
}

// GetAllSnapshots lists all recorded release snapshots.
func (s *MySQLStore) GetAllSnapshots() ([]model.Snapshot, error) {
	return GetAllSnapshotsBun(s.bun)
}

// GetSnapshotByTag returns the snapshot recorded for a tag.
func (s *MySQLStore) GetSnapshotByTag(tag string) (*model.Snapshot, error) {
	return GetSnapshotByTagBun(s.bun, tag)
}

// GetKnownHostKey retrieves the trusted public key for a given hostname.
func (s *MySQLStore) GetKnownHostKey(hostname string) (string, error) {
	return GetKnownHostKeyBun(s.bun, hostname)
}

// AddKnownHostKey adds a new trusted host key to the catalog.
// `key` is a reserved word in MySQL and must stay backtick-quoted.
func (s *MySQLStore) AddKnownHostKey(hostname, key string) error {
	_, err := ExecRaw(context.Background(), s.bun,
		"INSERT INTO known_hosts (hostname, `key`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `key` = VALUES(`key`)", hostname, key)
	if err == nil {
		_ = s.LogAction("TRUST_HOST", fmt.Sprintf("hostname: %s", hostname))
	}
	return err
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *MySQLStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *MySQLStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// SaveFetchSession saves an in-flight retrieval record.
func (s *MySQLStore) SaveFetchSession(id, dataset, remote string, expiresAt time.Time, status string) error {
	return SaveFetchSessionBun(s.bun, id, dataset, remote, expiresAt, status)
}

// GetFetchSession retrieves a fetch session by ID.
func (s *MySQLStore) GetFetchSession(id string) (*model.FetchSession, error) {
	return GetFetchSessionBun(s.bun, id)
}

// UpdateFetchSessionStatus updates the status of a fetch session.
func (s *MySQLStore) UpdateFetchSessionStatus(id string, status string) error {
	return UpdateFetchSessionStatusBun(s.bun, id, status)
}

// DeleteFetchSession removes a fetch session from the catalog.
func (s *MySQLStore) DeleteFetchSession(id string) error {
	return DeleteFetchSessionBun(s.bun, id)
}

// GetExpiredFetchSessions returns all fetch sessions past their deadline.
func (s *MySQLStore) GetExpiredFetchSessions() ([]*model.FetchSession, error) {
	return GetExpiredFetchSessionsBun(s.bun)
}

// ExportDataForBackup retrieves all data from the catalog for a backup.
func (s *MySQLStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the catalog from a backup data structure.
func (s *MySQLStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

// IntegrateDataFromBackup restores data from a backup in a non-destructive way.
func (s *MySQLStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}
