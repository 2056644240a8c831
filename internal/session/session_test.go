// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/testutil"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestGenerateSessionID(t *testing.T) {
	id, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("id length = %d, want 32 hex chars", len(id))
	}
	other, _ := generateSessionID()
	if id == other {
		t.Error("two ids should not collide")
	}
}

func TestSessionLifecycle(t *testing.T) {
	testutil.WithCatalog(t, func() {
		s, err := Begin("io/spectrum.dat", "origin (raw)")
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if ActiveCount() != 1 {
			t.Errorf("ActiveCount = %d, want 1", ActiveCount())
		}

		row, err := db.GetFetchSession(s.ID)
		if err != nil {
			t.Fatalf("GetFetchSession: %v", err)
		}
		if row.Status != model.FetchPending {
			t.Errorf("status = %q, want pending", row.Status)
		}
		if row.Dataset != "io/spectrum.dat" {
			t.Errorf("dataset = %q", row.Dataset)
		}

		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		row, _ = db.GetFetchSession(s.ID)
		if row.Status != model.FetchRunning {
			t.Errorf("status = %q, want running", row.Status)
		}

		if err := s.Complete(); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if ActiveCount() != 0 {
			t.Errorf("ActiveCount = %d after Complete, want 0", ActiveCount())
		}
		if row, _ := db.GetFetchSession(s.ID); row != nil {
			t.Errorf("session row should be gone after Complete, got %+v", row)
		}
	})
}

func TestSessionFail(t *testing.T) {
	testutil.WithCatalog(t, func() {
		s, err := Begin("io/elastic.dat", "mirror (sftp)")
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}

		if err := s.Fail(errors.New("connection reset")); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		if ActiveCount() != 0 {
			t.Errorf("ActiveCount = %d after Fail, want 0", ActiveCount())
		}

		row, err := db.GetFetchSession(s.ID)
		if err != nil {
			t.Fatalf("GetFetchSession: %v", err)
		}
		if row == nil || row.Status != model.FetchFailed {
			t.Fatalf("failed session row should stay, got %+v", row)
		}

		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			t.Fatalf("GetAllAuditLogEntries: %v", err)
		}
		var found bool
		for _, e := range entries {
			if e.Action == "FETCH_FAILED" && strings.Contains(e.Details, "connection reset") {
				found = true
			}
		}
		if !found {
			t.Error("FETCH_FAILED audit entry missing")
		}
	})
}

func TestCleanupAllActiveSessions(t *testing.T) {
	testutil.WithCatalog(t, func() {
		a, err := Begin("io/a.dat", "origin (raw)")
		if err != nil {
			t.Fatalf("Begin a: %v", err)
		}
		b, err := Begin("io/b.dat", "origin (raw)")
		if err != nil {
			t.Fatalf("Begin b: %v", err)
		}

		if err := CleanupAllActiveSessions(); err != nil {
			t.Fatalf("CleanupAllActiveSessions: %v", err)
		}
		if ActiveCount() != 0 {
			t.Errorf("ActiveCount = %d, want 0", ActiveCount())
		}
		for _, id := range []string{a.ID, b.ID} {
			row, _ := db.GetFetchSession(id)
			if row == nil || row.Status != model.FetchFailed {
				t.Errorf("session %s should be failed, got %+v", id, row)
			}
		}
	})
}

func TestExpiredSessionVisibleToMaintenance(t *testing.T) {
	testutil.WithCatalog(t, func() {
		SetClock(fakeClock{now: time.Now().Add(-2 * DefaultTTL)})
		defer ResetClock()

		s, err := Begin("io/old.dat", "origin (raw)")
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		defer UnregisterSession(s.ID)

		expired, err := db.GetExpiredFetchSessions()
		if err != nil {
			t.Fatalf("GetExpiredFetchSessions: %v", err)
		}
		var found bool
		for _, e := range expired {
			if e.ID == s.ID {
				found = true
			}
		}
		if !found {
			t.Error("backdated session should be listed as expired")
		}
	})
}

type recordingAuditWriter struct{ actions []string }

func (r *recordingAuditWriter) LogAction(action, details string) error {
	r.actions = append(r.actions, action)
	return nil
}

func TestSetAuditWriterOverride(t *testing.T) {
	testutil.WithCatalog(t, func() {
		rec := &recordingAuditWriter{}
		SetAuditWriter(rec)
		defer ClearAuditWriter()

		s, err := Begin("io/c.dat", "origin (raw)")
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		_ = s.Fail(errors.New("boom"))

		if len(rec.actions) != 1 || rec.actions[0] != "FETCH_FAILED" {
			t.Errorf("recorded actions = %v, want [FETCH_FAILED]", rec.actions)
		}
	})
}
