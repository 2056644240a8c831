package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/jmborr/qefdata/internal/model"
	"github.com/uptrace/bun"
)

// DatasetModel maps the `datasets` table for Bun queries.
type DatasetModel struct {
	bun.BaseModel `bun:"table:datasets"`
	ID            int            `bun:"id,pk,autoincrement"`
	Name          string         `bun:"name"`
	Kind          string         `bun:"kind"`
	Size          int64          `bun:"size"`
	SHA256        string         `bun:"sha256"`
	LocalPath     string         `bun:"local_path"`
	Source        string         `bun:"source"`
	FetchedAt     sql.NullTime   `bun:"fetched_at"`
	IsActive      bool           `bun:"is_active"`
	Tags          sql.NullString `bun:"tags"`
}

// RemoteModel maps the `remotes` table.
type RemoteModel struct {
	bun.BaseModel `bun:"table:remotes"`
	ID            int    `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
	Kind          string `bun:"kind"`
	URL           string `bun:"url"`
	IsActive      bool   `bun:"is_active"`
}

// SnapshotModel maps the `snapshots` table.
type SnapshotModel struct {
	bun.BaseModel `bun:"table:snapshots"`
	ID            int          `bun:"id,pk,autoincrement"`
	Tag           string       `bun:"tag"`
	URL           string       `bun:"url"`
	SHA256        string       `bun:"sha256"`
	Size          int64        `bun:"size"`
	DatasetCount  int          `bun:"dataset_count"`
	UnpackedAt    sql.NullTime `bun:"unpacked_at"`
}

// KnownHostModel maps known_hosts.
type KnownHostModel struct {
	bun.BaseModel `bun:"table:known_hosts"`
	Hostname      string `bun:"hostname,pk"`
	Key           string `bun:"key"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// FetchSessionModel maps fetch_sessions for crash-safe retrieval bookkeeping.
type FetchSessionModel struct {
	bun.BaseModel `bun:"table:fetch_sessions"`
	ID            string    `bun:"id,pk"`
	Dataset       string    `bun:"dataset"`
	Remote        string    `bun:"remote"`
	Status        string    `bun:"status"`
	CreatedAt     time.Time `bun:"created_at"`
	ExpiresAt     time.Time `bun:"expires_at"`
}

// --- Mapping helpers (centralized conversions) ---
func datasetModelToModel(dm DatasetModel) model.Dataset {
	d := model.Dataset{
		ID:        dm.ID,
		Name:      dm.Name,
		Kind:      model.DatasetKind(dm.Kind),
		Size:      dm.Size,
		SHA256:    dm.SHA256,
		LocalPath: dm.LocalPath,
		Source:    model.SourceKind(dm.Source),
		IsActive:  dm.IsActive,
	}
	if dm.FetchedAt.Valid {
		d.FetchedAt = dm.FetchedAt.Time
	}
	if dm.Tags.Valid {
		d.Tags = dm.Tags.String
	}
	return d
}

func datasetToBunModel(d model.Dataset) DatasetModel {
	return DatasetModel{
		ID:        d.ID,
		Name:      d.Name,
		Kind:      string(d.Kind),
		Size:      d.Size,
		SHA256:    d.SHA256,
		LocalPath: d.LocalPath,
		Source:    string(d.Source),
		FetchedAt: sql.NullTime{Time: d.FetchedAt, Valid: !d.FetchedAt.IsZero()},
		IsActive:  d.IsActive,
		Tags:      sql.NullString{String: d.Tags, Valid: d.Tags != ""},
	}
}

func remoteModelToModel(rm RemoteModel) model.Remote {
	return model.Remote{ID: rm.ID, Name: rm.Name, Kind: model.RemoteKind(rm.Kind), URL: rm.URL, IsActive: rm.IsActive}
}

func snapshotModelToModel(sm SnapshotModel) model.Snapshot {
	s := model.Snapshot{ID: sm.ID, Tag: sm.Tag, URL: sm.URL, SHA256: sm.SHA256, Size: sm.Size, DatasetCount: sm.DatasetCount}
	if sm.UnpackedAt.Valid {
		s.UnpackedAt = sm.UnpackedAt.Time
	}
	return s
}

func fetchSessionModelToModel(fm FetchSessionModel) model.FetchSession {
	return model.FetchSession{
		ID:        fm.ID,
		Dataset:   fm.Dataset,
		Remote:    fm.Remote,
		Status:    fm.Status,
		CreatedAt: fm.CreatedAt,
		ExpiresAt: fm.ExpiresAt,
	}
}

// --- Dataset helpers ---

// GetAllDatasetsBun returns all datasets ordered by name.
func GetAllDatasetsBun(bdb *bun.DB) ([]model.Dataset, error) {
	ctx := context.Background()
	var dm []DatasetModel
	if err := bdb.NewSelect().Model(&dm).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Dataset, 0, len(dm))
	for _, d := range dm {
		out = append(out, datasetModelToModel(d))
	}
	return out, nil
}

// GetActiveDatasetsBun returns all active datasets ordered by name.
func GetActiveDatasetsBun(bdb *bun.DB) ([]model.Dataset, error) {
	ctx := context.Background()
	var dm []DatasetModel
	if err := bdb.NewSelect().Model(&dm).Where("is_active = ?", 1).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Dataset, 0, len(dm))
	for _, d := range dm {
		out = append(out, datasetModelToModel(d))
	}
	return out, nil
}

// GetDatasetByNameBun retrieves a dataset by its unique name.
// Returns (nil, nil) when no dataset with that name exists.
func GetDatasetByNameBun(bdb *bun.DB, name string) (*model.Dataset, error) {
	ctx := context.Background()
	var dm DatasetModel
	err := bdb.NewSelect().Model(&dm).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := datasetModelToModel(dm)
	return &m, nil
}

// AddDatasetBun inserts a new dataset and returns its ID.
func AddDatasetBun(bdb *bun.DB, d model.Dataset) (int, error) {
	ctx := context.Background()
	// Use Bun's NewInsert with Returning so the assigned ID comes back in a
	// DB-agnostic way. is_active is left to the schema default.
	dm := datasetToBunModel(d)
	dm.ID = 0
	dm.IsActive = true
	if _, err := bdb.NewInsert().Model(&dm).Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return dm.ID, nil
}

// UpdateDatasetFetchedBun records a completed retrieval for the named dataset.
func UpdateDatasetFetchedBun(bdb *bun.DB, name, localPath, sha256 string, size int64, source model.SourceKind, fetchedAt time.Time) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb,
		"UPDATE datasets SET local_path = ?, sha256 = ?, size = ?, source = ?, fetched_at = ? WHERE name = ?",
		localPath, sha256, size, string(source), fetchedAt, name)
	return err
}

// UpdateDatasetChecksumBun sets a new checksum and size for the named dataset.
func UpdateDatasetChecksumBun(bdb *bun.DB, name, sha256 string, size int64) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "UPDATE datasets SET sha256 = ?, size = ? WHERE name = ?", sha256, size, name)
	return err
}

// UpdateDatasetTagsBun updates the tags column for a dataset by id.
func UpdateDatasetTagsBun(bdb *bun.DB, id int, tags string) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "UPDATE datasets SET tags = ? WHERE id = ?", tags, id)
	return err
}

// ToggleDatasetStatusBun flips is_active for a dataset by id.
func ToggleDatasetStatusBun(bdb *bun.DB, id int) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "UPDATE datasets SET is_active = NOT is_active WHERE id = ?", id)
	return err
}

// DeleteDatasetBun removes a dataset by id.
func DeleteDatasetBun(bdb *bun.DB, id int) error {
	ctx := context.Background()
	_, err := bdb.NewDelete().Model((*DatasetModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// SearchDatasetsBun performs a portable fuzzy search over datasets using
// simple tokenized LIKE matching across name, kind, source, and tags.
// This emulates more advanced Postgres full-text search in a DB-agnostic way.
func SearchDatasetsBun(bdb *bun.DB, q string) ([]model.Dataset, error) {
	ctx := context.Background()
	tokens := TokenizeSearchQuery(q)
	var dm []DatasetModel
	qb := bdb.NewSelect().Model(&dm)
	if len(tokens) > 0 {
		// Build WHERE clause with AND of ORs: for each token, require it matches one of the columns
		for _, tok := range tokens {
			like := "%" + tok + "%"
			// Use LOWER(...) for case-insensitive matching across engines
			qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(kind) LIKE ? OR LOWER(source) LIKE ? OR LOWER(tags) LIKE ?)", like, like, like, like)
		}
	}
	if err := qb.OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Dataset, 0, len(dm))
	for _, d := range dm {
		out = append(out, datasetModelToModel(d))
	}
	return out, nil
}

// --- Remote helpers ---

// GetAllRemotesBun returns all remotes ordered by name.
func GetAllRemotesBun(bdb *bun.DB) ([]model.Remote, error) {
	ctx := context.Background()
	var rm []RemoteModel
	if err := bdb.NewSelect().Model(&rm).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Remote, 0, len(rm))
	for _, r := range rm {
		out = append(out, remoteModelToModel(r))
	}
	return out, nil
}

// GetActiveRemoteByKindBun returns the first active remote of the given kind.
// Returns (nil, nil) when no active remote of that kind is configured.
func GetActiveRemoteByKindBun(bdb *bun.DB, kind model.RemoteKind) (*model.Remote, error) {
	ctx := context.Background()
	var rm RemoteModel
	err := bdb.NewSelect().Model(&rm).
		Where("kind = ?", string(kind)).
		Where("is_active = ?", 1).
		OrderExpr("id").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := remoteModelToModel(rm)
	return &m, nil
}

// AddRemoteBun inserts a new remote and returns its ID.
func AddRemoteBun(bdb *bun.DB, name string, kind model.RemoteKind, url string) (int, error) {
	ctx := context.Background()
	rm := &RemoteModel{Name: name, Kind: string(kind), URL: url}
	// Insert only the fields we want the DB to default (is_active).
	if _, err := bdb.NewInsert().Model(rm).Column("name", "kind", "url").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return rm.ID, nil
}

// ToggleRemoteStatusBun flips is_active for a remote by id.
func ToggleRemoteStatusBun(bdb *bun.DB, id int) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "UPDATE remotes SET is_active = NOT is_active WHERE id = ?", id)
	return err
}

// DeleteRemoteBun removes a remote by id.
func DeleteRemoteBun(bdb *bun.DB, id int) error {
	ctx := context.Background()
	_, err := bdb.NewDelete().Model((*RemoteModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// --- Snapshot helpers ---

// AddSnapshotBun records an unpacked release archive and returns its ID.
func AddSnapshotBun(bdb *bun.DB, s model.Snapshot) (int, error) {
	ctx := context.Background()
	sm := &SnapshotModel{
		Tag:          s.Tag,
		URL:          s.URL,
		SHA256:       s.SHA256,
		Size:         s.Size,
		DatasetCount: s.DatasetCount,
		UnpackedAt:   sql.NullTime{Time: s.UnpackedAt, Valid: !s.UnpackedAt.IsZero()},
	}
	if _, err := bdb.NewInsert().Model(sm).Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return sm.ID, nil
}

// GetAllSnapshotsBun retrieves all snapshots, most recently unpacked first.
func GetAllSnapshotsBun(bdb *bun.DB) ([]model.Snapshot, error) {
	ctx := context.Background()
	var sm []SnapshotModel
	if err := bdb.NewSelect().Model(&sm).OrderExpr("unpacked_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Snapshot, 0, len(sm))
	for _, s := range sm {
		out = append(out, snapshotModelToModel(s))
	}
	return out, nil
}

// GetSnapshotByTagBun retrieves a snapshot by its release tag.
// Returns (nil, nil) when the tag has not been unpacked.
func GetSnapshotByTagBun(bdb *bun.DB, tag string) (*model.Snapshot, error) {
	ctx := context.Background()
	var sm SnapshotModel
	err := bdb.NewSelect().Model(&sm).Where("tag = ?", tag).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := snapshotModelToModel(sm)
	return &m, nil
}

// --- Known host helpers ---

// GetKnownHostKeyBun retrieves the pinned public key for a hostname.
// An unknown host returns ("", nil); that is a state, not an error.
func GetKnownHostKeyBun(bdb *bun.DB, hostname string) (string, error) {
	ctx := context.Background()
	var kh KnownHostModel
	err := bdb.NewSelect().Model(&kh).Where("hostname = ?", hostname).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return kh.Key, nil
}

// --- Audit log helpers ---

// GetAllAuditLogEntriesBun retrieves audit log entries ordered by timestamp desc.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var am []AuditLogModel
	if err := bdb.NewSelect().Model(&am).OrderExpr("timestamp DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details})
	}
	return out, nil
}

// LogActionBun inserts an audit log entry with the current OS user.
func LogActionBun(bdb *bun.DB, action string, details string) error {
	ctx := context.Background()
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	entry := &AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}
	_, err = bdb.NewInsert().Model(entry).Exec(ctx)
	return MapDBError(err)
}

// --- Fetch session helpers ---

// SaveFetchSessionBun persists an in-flight retrieval record.
func SaveFetchSessionBun(bdb *bun.DB, id, dataset, remote string, expiresAt time.Time, status string) error {
	ctx := context.Background()
	fm := &FetchSessionModel{
		ID:        id,
		Dataset:   dataset,
		Remote:    remote,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	_, err := bdb.NewInsert().Model(fm).Exec(ctx)
	return MapDBError(err)
}

// GetFetchSessionBun retrieves a fetch session by ID.
// Returns (nil, nil) when no session with that ID exists.
func GetFetchSessionBun(bdb *bun.DB, id string) (*model.FetchSession, error) {
	ctx := context.Background()
	var fm FetchSessionModel
	err := bdb.NewSelect().Model(&fm).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := fetchSessionModelToModel(fm)
	return &m, nil
}

// UpdateFetchSessionStatusBun updates the status of a fetch session.
func UpdateFetchSessionStatusBun(bdb *bun.DB, id, status string) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "UPDATE fetch_sessions SET status = ? WHERE id = ?", status, id)
	return err
}

// DeleteFetchSessionBun removes a fetch session by ID.
func DeleteFetchSessionBun(bdb *bun.DB, id string) error {
	ctx := context.Background()
	_, err := bdb.NewDelete().Model((*FetchSessionModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// GetExpiredFetchSessionsBun returns all fetch sessions past their deadline.
func GetExpiredFetchSessionsBun(bdb *bun.DB) ([]*model.FetchSession, error) {
	ctx := context.Background()
	var fms []FetchSessionModel
	if err := bdb.NewSelect().Model(&fms).Where("expires_at < ?", time.Now().UTC()).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*model.FetchSession, 0, len(fms))
	for _, f := range fms {
		m := fetchSessionModelToModel(f)
		out = append(out, &m)
	}
	return out, nil
}

// --- Backup helpers ---

// ExportDataForBackupBun exports all tables' data into a model.BackupData using a Bun transaction.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: model.BackupSchemaVersion}

		// Datasets
		var dms []DatasetModel
		if err := tx.NewSelect().Model(&dms).Scan(ctx); err != nil {
			return err
		}
		for _, d := range dms {
			backup.Datasets = append(backup.Datasets, datasetModelToModel(d))
		}

		// Remotes
		var rms []RemoteModel
		if err := tx.NewSelect().Model(&rms).Scan(ctx); err != nil {
			return err
		}
		for _, r := range rms {
			backup.Remotes = append(backup.Remotes, remoteModelToModel(r))
		}

		// Snapshots
		var sms []SnapshotModel
		if err := tx.NewSelect().Model(&sms).Scan(ctx); err != nil {
			return err
		}
		for _, s := range sms {
			backup.Snapshots = append(backup.Snapshots, snapshotModelToModel(s))
		}

		// Known hosts
		var khs []KnownHostModel
		if err := tx.NewSelect().Model(&khs).Scan(ctx); err != nil {
			return err
		}
		for _, k := range khs {
			backup.KnownHosts = append(backup.KnownHosts, model.KnownHost{Hostname: k.Hostname, Key: k.Key})
		}

		// Audit log
		var als []AuditLogModel
		if err := tx.NewSelect().Model(&als).Scan(ctx); err != nil {
			return err
		}
		for _, a := range als {
			backup.AuditLogEntries = append(backup.AuditLogEntries, model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details})
		}

		// Fetch sessions
		var fms []FetchSessionModel
		if err := tx.NewSelect().Model(&fms).Scan(ctx); err != nil {
			return err
		}
		for _, f := range fms {
			backup.FetchSessions = append(backup.FetchSessions, fetchSessionModelToModel(f))
		}

		return nil
	})
	return backup, err
}

// ImportDataFromBackupBun performs a full wipe-and-replace using a Bun transaction.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		// Wipe tables
		tables := []string{"fetch_sessions", "audit_log", "known_hosts", "snapshots", "remotes", "datasets"}
		for _, t := range tables {
			if _, err := ExecRaw(ctx, tx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
				return err
			}
		}

		// Insert datasets, preserving their IDs.
		for _, d := range backup.Datasets {
			dm := datasetToBunModel(d)
			if _, err := tx.NewInsert().Model(&dm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		// Remotes
		for _, r := range backup.Remotes {
			rm := RemoteModel{ID: r.ID, Name: r.Name, Kind: string(r.Kind), URL: r.URL, IsActive: r.IsActive}
			if _, err := tx.NewInsert().Model(&rm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		// Snapshots
		for _, s := range backup.Snapshots {
			sm := SnapshotModel{ID: s.ID, Tag: s.Tag, URL: s.URL, SHA256: s.SHA256, Size: s.Size, DatasetCount: s.DatasetCount, UnpackedAt: sql.NullTime{Time: s.UnpackedAt, Valid: !s.UnpackedAt.IsZero()}}
			if _, err := tx.NewInsert().Model(&sm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		// Known hosts
		for _, kh := range backup.KnownHosts {
			km := KnownHostModel{Hostname: kh.Hostname, Key: kh.Key}
			if _, err := tx.NewInsert().Model(&km).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		// Audit log entries keep their original string timestamps.
		for _, ale := range backup.AuditLogEntries {
			am := AuditLogModel{ID: ale.ID, Timestamp: ale.Timestamp, Username: ale.Username, Action: ale.Action, Details: ale.Details}
			if _, err := tx.NewInsert().Model(&am).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		// Fetch sessions: include CreatedAt/ExpiresAt when importing.
		for _, fs := range backup.FetchSessions {
			fm := FetchSessionModel{ID: fs.ID, Dataset: fs.Dataset, Remote: fs.Remote, Status: fs.Status, CreatedAt: fs.CreatedAt, ExpiresAt: fs.ExpiresAt}
			if _, err := tx.NewInsert().Model(&fm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}

// IntegrateDataFromBackupBun performs a non-destructive restore, skipping rows
// that already exist. Bun's Ignore() picks the right conflict clause per engine.
func IntegrateDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		for _, d := range backup.Datasets {
			dm := datasetToBunModel(d)
			dm.ID = 0
			if _, err := tx.NewInsert().Model(&dm).Ignore().Exec(ctx); err != nil {
				return err
			}
		}
		for _, r := range backup.Remotes {
			rm := RemoteModel{Name: r.Name, Kind: string(r.Kind), URL: r.URL, IsActive: r.IsActive}
			if _, err := tx.NewInsert().Model(&rm).Ignore().Exec(ctx); err != nil {
				return err
			}
		}
		for _, s := range backup.Snapshots {
			sm := SnapshotModel{Tag: s.Tag, URL: s.URL, SHA256: s.SHA256, Size: s.Size, DatasetCount: s.DatasetCount, UnpackedAt: sql.NullTime{Time: s.UnpackedAt, Valid: !s.UnpackedAt.IsZero()}}
			if _, err := tx.NewInsert().Model(&sm).Ignore().Exec(ctx); err != nil {
				return err
			}
		}
		for _, kh := range backup.KnownHosts {
			km := KnownHostModel{Hostname: kh.Hostname, Key: kh.Key}
			if _, err := tx.NewInsert().Model(&km).Ignore().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
