// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core holds UI-agnostic aggregation logic shared by the CLI and TUI.
package core

import (
	"github.com/jmborr/qefdata/internal/model"
)

// DashboardReader is the slice of the catalog the dashboard needs.
type DashboardReader interface {
	GetAllDatasets() ([]model.Dataset, error)
	GetAllRemotes() ([]model.Remote, error)
	GetAllSnapshots() ([]model.Snapshot, error)
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
}

// DashboardData holds aggregated values for the main dashboard.
type DashboardData struct {
	DatasetCount    int
	ActiveDatasets  int
	FetchedDatasets int
	FetchedBytes    int64
	KindCounts      map[string]int
	RemoteCount     int
	ActiveRemotes   int
	SnapshotCount   int
	LastSnapshotTag string
	RecentLogs      []model.AuditLogEntry
}

// BuildDashboardData collects datasets, remotes, snapshots and recent audit
// entries, and computes the aggregated metrics for the dashboard.
func BuildDashboardData(r DashboardReader) (DashboardData, error) {
	var out DashboardData

	datasets, err := r.GetAllDatasets()
	if err != nil {
		return out, err
	}
	remotes, err := r.GetAllRemotes()
	if err != nil {
		return out, err
	}
	snapshots, err := r.GetAllSnapshots()
	if err != nil {
		return out, err
	}
	logs, err := r.GetAllAuditLogEntries()
	if err != nil {
		return out, err
	}

	out.DatasetCount = len(datasets)
	out.KindCounts = make(map[string]int)
	for _, ds := range datasets {
		if ds.IsActive {
			out.ActiveDatasets++
		}
		if ds.Fetched() {
			out.FetchedDatasets++
			out.FetchedBytes += ds.Size
		}
		out.KindCounts[string(ds.Kind)]++
	}

	out.RemoteCount = len(remotes)
	for _, rm := range remotes {
		if rm.IsActive {
			out.ActiveRemotes++
		}
	}

	out.SnapshotCount = len(snapshots)
	if len(snapshots) > 0 {
		// Snapshots arrive most recently unpacked first.
		out.LastSnapshotTag = snapshots[0].Tag
	}

	const maxLogs = 5
	if len(logs) > maxLogs {
		out.RecentLogs = logs[:maxLogs]
	} else {
		out.RecentLogs = logs
	}

	return out, nil
}
