// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all data exported from the catalog.
// It holds slices of all the core models in QEFData.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	Datasets        []Dataset       `json:"datasets"`
	Remotes         []Remote        `json:"remotes"`
	Snapshots       []Snapshot      `json:"snapshots"`
	KnownHosts      []KnownHost     `json:"known_hosts"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
	FetchSessions   []FetchSession  `json:"fetch_sessions"`
}

// BackupSchemaVersion is the version written into new backups.
const BackupSchemaVersion = 1
