// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package session provides crash-safe bookkeeping for long-running dataset
// retrievals. A session row is written to the catalog before any bytes move,
// so an interrupted or crashed fetch leaves an inspectable trace instead of
// vanishing; abandoned rows expire and are purged by catalog maintenance.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
)

// DefaultTTL is how long a session may run before maintenance considers it
// abandoned. Large datasets over slow links fit comfortably within it.
const DefaultTTL = 30 * time.Minute

// Session tracks one in-flight retrieval.
type Session struct {
	ID        string
	Dataset   string
	Remote    string
	ExpiresAt time.Time
}

// Begin records a pending session for the dataset/remote pair and registers
// it for cleanup on interruption.
func Begin(dataset, remote string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	s := &Session{
		ID:        id,
		Dataset:   dataset,
		Remote:    remote,
		ExpiresAt: defaultClock.Now().Add(DefaultTTL),
	}
	if err := db.SaveFetchSession(s.ID, dataset, remote, s.ExpiresAt, model.FetchPending); err != nil {
		return nil, fmt.Errorf("failed to save fetch session: %w", err)
	}
	RegisterSession(s)
	return s, nil
}

// Start marks the session as actively transferring.
func (s *Session) Start() error {
	return db.UpdateFetchSessionStatus(s.ID, model.FetchRunning)
}

// Complete removes the session row; the dataset's catalog entry and the audit
// trail carry the durable record of the fetch.
func (s *Session) Complete() error {
	UnregisterSession(s.ID)
	return db.DeleteFetchSession(s.ID)
}

// Fail marks the session failed and writes an audit entry. The row stays
// until it expires so a failed transfer remains visible to maintenance.
func (s *Session) Fail(reason error) error {
	UnregisterSession(s.ID)
	_ = logAction("FETCH_FAILED", fmt.Sprintf("dataset: %s, remote: %s, error: %v", s.Dataset, s.Remote, reason))
	return db.UpdateFetchSessionStatus(s.ID, model.FetchFailed)
}

// generateSessionID returns 16 random bytes hex-encoded.
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
