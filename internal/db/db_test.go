package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmborr/qefdata/internal/model"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return dsn
}

func TestInitDB_Migrations_Applied(t *testing.T) {
	dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	rows, err := sqlDB.Query("PRAGMA table_info(schema_migrations)")
	if err != nil {
		t.Fatalf("failed to query schema_migrations table info: %v", err)
	}
	defer func() { _ = rows.Close() }()

	foundAppliedAt := false
	for rows.Next() {
		var cid int
		var name string
		var typ string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("failed scanning pragma row: %v", err)
		}
		if name == "applied_at" {
			foundAppliedAt = true
			break
		}
	}
	if !foundAppliedAt {
		t.Fatalf("expected schema_migrations.applied_at column to exist after migrations")
	}
}

func TestInitDB_MigrationsIdempotent(t *testing.T) {
	dsn := newTestDB(t)

	// Re-running InitDB against the same database must not fail or re-apply
	// migrations.
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestDataset_AddAndGetByName(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddDataset(model.Dataset{Name: "io/irs26176_graphite002_red.nxs", Kind: model.KindNexus})
	if err != nil {
		t.Fatalf("unexpected error adding dataset: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero dataset id")
	}

	d, err := GetDatasetByName("io/irs26176_graphite002_red.nxs")
	if err != nil {
		t.Fatalf("unexpected error getting dataset: %v", err)
	}
	if d == nil {
		t.Fatalf("expected dataset, got nil")
	}
	if d.Kind != model.KindNexus {
		t.Errorf("expected kind %q, got %q", model.KindNexus, d.Kind)
	}
	if !d.IsActive {
		t.Errorf("expected new dataset to be active")
	}
	if d.Fetched() {
		t.Errorf("expected new dataset to be unfetched")
	}

	// Unknown names return (nil, nil); absence is a state, not an error.
	missing, err := GetDatasetByName("no/such/file.dat")
	if err != nil {
		t.Fatalf("unexpected error for missing dataset: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing dataset, got %v", missing)
	}
}

func TestDataset_AddDuplicateBehavior(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddDataset(model.Dataset{Name: "ref/dave_file.grp", Kind: model.KindAscii}); err != nil {
		t.Fatalf("unexpected error on first AddDataset: %v", err)
	}
	if _, err := AddDataset(model.Dataset{Name: "ref/dave_file.grp", Kind: model.KindAscii}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on duplicate AddDataset, got: %v", err)
	}
}

func TestDataset_FetchLifecycle(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddDataset(model.Dataset{Name: "io/irs26176.nxs", Kind: model.KindNexus}); err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	fetchedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err := UpdateDatasetFetched("io/irs26176.nxs", "/data/qef/io/irs26176.nxs",
		"9f2c1a0bdeadbeef9f2c1a0bdeadbeef9f2c1a0bdeadbeef9f2c1a0bdeadbeef", 1024, model.SourceRaw, fetchedAt)
	if err != nil {
		t.Fatalf("UpdateDatasetFetched failed: %v", err)
	}

	d, err := GetDatasetByName("io/irs26176.nxs")
	if err != nil || d == nil {
		t.Fatalf("GetDatasetByName failed: %v", err)
	}
	if !d.Fetched() {
		t.Errorf("expected dataset to report fetched")
	}
	if d.Source != model.SourceRaw {
		t.Errorf("expected source %q, got %q", model.SourceRaw, d.Source)
	}
	if d.Size != 1024 {
		t.Errorf("expected size 1024, got %d", d.Size)
	}
	if !d.FetchedAt.Equal(fetchedAt) {
		t.Errorf("expected fetched_at %v, got %v", fetchedAt, d.FetchedAt)
	}
}

func TestDataset_ToggleAndDelete(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddDataset(model.Dataset{Name: "io/toggle_me.nxs", Kind: model.KindNexus})
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	if err := ToggleDatasetStatus(id); err != nil {
		t.Fatalf("ToggleDatasetStatus failed: %v", err)
	}
	d, err := GetDatasetByName("io/toggle_me.nxs")
	if err != nil || d == nil {
		t.Fatalf("GetDatasetByName failed: %v", err)
	}
	if d.IsActive {
		t.Errorf("expected dataset to be inactive after toggle")
	}

	active, err := GetActiveDatasets()
	if err != nil {
		t.Fatalf("GetActiveDatasets failed: %v", err)
	}
	for _, a := range active {
		if a.ID == id {
			t.Errorf("inactive dataset still listed as active")
		}
	}

	if err := DeleteDataset(id); err != nil {
		t.Fatalf("DeleteDataset failed: %v", err)
	}
	d, err = GetDatasetByName("io/toggle_me.nxs")
	if err != nil {
		t.Fatalf("GetDatasetByName after delete failed: %v", err)
	}
	if d != nil {
		t.Fatalf("expected dataset gone after delete, got %v", d)
	}
}

func TestDataset_TagsUpdate(t *testing.T) {
	_ = newTestDB(t)

	id, err := AddDataset(model.Dataset{Name: "io/tagged.nxs", Kind: model.KindNexus})
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}
	if err := UpdateDatasetTags(id, model.NormalizeTags("QENS, osiris, QENS")); err != nil {
		t.Fatalf("UpdateDatasetTags failed: %v", err)
	}
	d, err := GetDatasetByName("io/tagged.nxs")
	if err != nil || d == nil {
		t.Fatalf("GetDatasetByName failed: %v", err)
	}
	if d.Tags != "qens,osiris" {
		t.Errorf("expected normalized tags 'qens,osiris', got %q", d.Tags)
	}
}

func TestKnownHosts_PinAndReplace(t *testing.T) {
	_ = newTestDB(t)

	key, err := GetKnownHostKey("mirror.example.org")
	if err != nil {
		t.Fatalf("GetKnownHostKey failed: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key for unknown host, got %q", key)
	}

	if err := AddKnownHostKey("mirror.example.org", "ssh-ed25519 AAAAfirst"); err != nil {
		t.Fatalf("AddKnownHostKey failed: %v", err)
	}
	key, err = GetKnownHostKey("mirror.example.org")
	if err != nil || key != "ssh-ed25519 AAAAfirst" {
		t.Fatalf("expected pinned key, got %q (err %v)", key, err)
	}

	// Re-pinning overwrites; a re-provisioned mirror gets a fresh key.
	if err := AddKnownHostKey("mirror.example.org", "ssh-ed25519 AAAAsecond"); err != nil {
		t.Fatalf("re-pin failed: %v", err)
	}
	key, _ = GetKnownHostKey("mirror.example.org")
	if key != "ssh-ed25519 AAAAsecond" {
		t.Fatalf("expected replaced key, got %q", key)
	}
}

func TestAuditLog_RecordsMutations(t *testing.T) {
	_ = newTestDB(t)

	if _, err := AddDataset(model.Dataset{Name: "io/audited.nxs", Kind: model.KindNexus}); err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}
	if err := LogAction("TEST_ACTION", "details here"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	entries, err := GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 audit entries, got %d", len(entries))
	}
	foundAdd := false
	for _, e := range entries {
		if e.Action == "ADD_DATASET" {
			foundAdd = true
		}
		if e.Username == "" {
			t.Errorf("audit entry missing username: %+v", e)
		}
		if e.Timestamp == "" {
			t.Errorf("audit entry missing timestamp: %+v", e)
		}
	}
	if !foundAdd {
		t.Errorf("expected ADD_DATASET audit entry")
	}
}
