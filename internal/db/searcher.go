package db

import (
	"github.com/jmborr/qefdata/internal/model"
	"github.com/uptrace/bun"
)

// DatasetSearcher defines a minimal interface for searching datasets.
// Consumers can depend on this instead of concrete Store implementations.
type DatasetSearcher interface {
	SearchDatasets(query string) ([]model.Dataset, error)
}

// BunDatasetSearcher is a Bun-based implementation of DatasetSearcher.
type BunDatasetSearcher struct {
	bdb *bun.DB
}

// NewBunDatasetSearcher creates a new BunDatasetSearcher.
func NewBunDatasetSearcher(bdb *bun.DB) DatasetSearcher {
	return &BunDatasetSearcher{bdb: bdb}
}

// NewDatasetSearcherFromStore creates a DatasetSearcher from any Store by
// using the underlying Bun DB.
func NewDatasetSearcherFromStore(s Store) DatasetSearcher {
	return NewBunDatasetSearcher(s.BunDB())
}

// SearchDatasets delegates to the centralized Bun search helper.
func (s *BunDatasetSearcher) SearchDatasets(q string) ([]model.Dataset, error) {
	return SearchDatasetsBun(s.bdb, q)
}

// package-level override used primarily by tests to inject a fake searcher.
var defaultDatasetSearcher DatasetSearcher

// DefaultDatasetSearcher returns a DatasetSearcher backed by the package-level
// `store` if available. It returns nil when the package store is not
// initialized; callers should handle nil by falling back to local filtering.
func DefaultDatasetSearcher() DatasetSearcher {
	if defaultDatasetSearcher != nil {
		return defaultDatasetSearcher
	}
	if store == nil {
		return nil
	}
	return NewDatasetSearcherFromStore(store)
}

// SetDefaultDatasetSearcher sets a package-level DatasetSearcher that will be
// returned by DefaultDatasetSearcher(). Useful for tests to inject a fake.
func SetDefaultDatasetSearcher(s DatasetSearcher) {
	defaultDatasetSearcher = s
}

// ClearDefaultDatasetSearcher clears any previously set package-level searcher.
func ClearDefaultDatasetSearcher() {
	defaultDatasetSearcher = nil
}

// AuditSearcher defines a minimal interface for reading the audit trail.
type AuditSearcher interface {
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
}

// package-level override used primarily by tests to inject a fake audit searcher.
var defaultAuditSearcher AuditSearcher

// DefaultAuditSearcher returns an AuditSearcher backed by the package-level
// `store` if available, or nil when the store is not initialized.
func DefaultAuditSearcher() AuditSearcher {
	if defaultAuditSearcher != nil {
		return defaultAuditSearcher
	}
	if store == nil {
		return nil
	}
	return store
}

// SetDefaultAuditSearcher sets a package-level AuditSearcher that will be
// returned by DefaultAuditSearcher(). Useful for tests to inject a fake.
func SetDefaultAuditSearcher(s AuditSearcher) {
	defaultAuditSearcher = s
}

// ClearDefaultAuditSearcher clears any previously set package-level audit searcher.
func ClearDefaultAuditSearcher() {
	defaultAuditSearcher = nil
}
