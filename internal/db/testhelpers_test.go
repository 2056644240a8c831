// Copyright (c) 2025 Jose Borreguero
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"
)

// WithTestStore initializes an in-memory sqlite Store for the duration of the
// provided function and restores package-level globals afterwards.
func WithTestStore(t *testing.T, fn func(s *SqliteStore)) {
	t.Helper()

	// Save previous globals
	prevStore := store
	prevDefaultDatasetSearcher := defaultDatasetSearcher
	prevDefaultAuditSearcher := defaultAuditSearcher

	// Initialize in-memory sqlite DB for this test
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	s, ok := store.(*SqliteStore)
	if !ok {
		t.Fatalf("store is not *SqliteStore")
	}

	// Ensure restoration of globals after fn completes
	defer func() {
		store = prevStore
		defaultDatasetSearcher = prevDefaultDatasetSearcher
		defaultAuditSearcher = prevDefaultAuditSearcher
	}()

	fn(s)
}
