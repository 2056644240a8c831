package ui

import (
	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
)

type dbSearcherAdapter struct {
	s db.DatasetSearcher
}

func (d *dbSearcherAdapter) SearchDatasets(q string) ([]model.Dataset, error) {
	if d.s == nil {
		return nil, nil
	}
	return d.s.SearchDatasets(q)
}

// DefaultDatasetSearcher returns a DatasetSearcher that wraps the package
// default DB searcher. It may return nil if no DB searcher is configured.
func DefaultDatasetSearcher() DatasetSearcher {
	s := db.DefaultDatasetSearcher()
	if s == nil {
		return nil
	}
	return &dbSearcherAdapter{s: s}
}

type dbAuditSearcherAdapter struct {
	s db.AuditSearcher
}

func (d *dbAuditSearcherAdapter) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	if d.s == nil {
		return nil, nil
	}
	return d.s.GetAllAuditLogEntries()
}

// DefaultAuditSearcher returns an AuditSearcher that wraps the package default
// DB audit searcher. It may return nil if no DB searcher is configured.
func DefaultAuditSearcher() AuditSearcher {
	s := db.DefaultAuditSearcher()
	if s == nil {
		return nil
	}
	return &dbAuditSearcherAdapter{s: s}
}
