package db

import (
	"testing"
	"time"

	"github.com/jmborr/qefdata/internal/model"
)

func seedCatalog(t *testing.T) {
	t.Helper()
	if _, err := AddDataset(model.Dataset{Name: "io/a.nxs", Kind: model.KindNexus}); err != nil {
		t.Fatalf("seed AddDataset failed: %v", err)
	}
	if _, err := AddDataset(model.Dataset{Name: "ref/b.grp", Kind: model.KindAscii}); err != nil {
		t.Fatalf("seed AddDataset failed: %v", err)
	}
	if _, err := AddRemote("origin", model.RemoteGit, "https://github.com/jmborr/qef_data.git"); err != nil {
		t.Fatalf("seed AddRemote failed: %v", err)
	}
	if _, err := AddSnapshot(model.Snapshot{Tag: "v1.0.0", URL: "https://example.org/v1.0.0.tar.gz", UnpackedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed AddSnapshot failed: %v", err)
	}
	if err := AddKnownHostKey("mirror.example.org", "ssh-ed25519 AAAAtest"); err != nil {
		t.Fatalf("seed AddKnownHostKey failed: %v", err)
	}
}

func TestBackup_ExportContainsAllSections(t *testing.T) {
	_ = newTestDB(t)
	seedCatalog(t)

	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}
	if backup.SchemaVersion != model.BackupSchemaVersion {
		t.Errorf("expected schema version %d, got %d", model.BackupSchemaVersion, backup.SchemaVersion)
	}
	if len(backup.Datasets) != 2 {
		t.Errorf("expected 2 datasets in backup, got %d", len(backup.Datasets))
	}
	if len(backup.Remotes) != 1 {
		t.Errorf("expected 1 remote in backup, got %d", len(backup.Remotes))
	}
	if len(backup.Snapshots) != 1 {
		t.Errorf("expected 1 snapshot in backup, got %d", len(backup.Snapshots))
	}
	if len(backup.KnownHosts) != 1 {
		t.Errorf("expected 1 known host in backup, got %d", len(backup.KnownHosts))
	}
	// Mutations above were audited.
	if len(backup.AuditLogEntries) == 0 {
		t.Errorf("expected audit entries in backup")
	}
}

func TestBackup_ImportWipesAndReplaces(t *testing.T) {
	_ = newTestDB(t)
	seedCatalog(t)

	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}

	// Mutate the catalog after the export.
	if _, err := AddDataset(model.Dataset{Name: "io/after_backup.nxs", Kind: model.KindOther}); err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	if err := ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup failed: %v", err)
	}

	// The post-export dataset must be gone.
	d, err := GetDatasetByName("io/after_backup.nxs")
	if err != nil {
		t.Fatalf("GetDatasetByName failed: %v", err)
	}
	if d != nil {
		t.Fatalf("expected post-export dataset to be wiped by import")
	}

	// The backed-up rows are restored with their original IDs.
	datasets, err := GetAllDatasets()
	if err != nil {
		t.Fatalf("GetAllDatasets failed: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("expected 2 datasets after restore, got %d", len(datasets))
	}
	key, err := GetKnownHostKey("mirror.example.org")
	if err != nil || key != "ssh-ed25519 AAAAtest" {
		t.Fatalf("expected restored host key, got %q (err %v)", key, err)
	}
}

func TestBackup_IntegrateKeepsExisting(t *testing.T) {
	_ = newTestDB(t)
	seedCatalog(t)

	backup, err := ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}

	// A dataset added after the export must survive integration.
	if _, err := AddDataset(model.Dataset{Name: "io/survivor.nxs", Kind: model.KindNexus}); err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	if err := IntegrateDataFromBackup(backup); err != nil {
		t.Fatalf("IntegrateDataFromBackup failed: %v", err)
	}

	d, err := GetDatasetByName("io/survivor.nxs")
	if err != nil || d == nil {
		t.Fatalf("expected survivor dataset, got %v (err %v)", d, err)
	}
	// Rows from the backup that already exist are skipped, not duplicated.
	datasets, err := GetAllDatasets()
	if err != nil {
		t.Fatalf("GetAllDatasets failed: %v", err)
	}
	if len(datasets) != 3 {
		t.Fatalf("expected 3 datasets after integrate, got %d", len(datasets))
	}
}
