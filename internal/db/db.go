package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/presence.report/internal/scan"
)

type DB struct {
	*sql.DB

	path string
}

// NewDB opens the database at path and applies any pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenDB opens the database without touching the schema. Callers that
// need the schema in place should use NewDB instead.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; the busy timeout keeps concurrent
	// API reads from failing while the scanner sink is inserting.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	return &DB{DB: db, path: path}, nil
}

// Path returns the filesystem path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Detection is one persisted device observation.
type Detection struct {
	ID         int64     `json:"id"`
	Address    string    `json:"address"`
	Name       string    `json:"name"`
	RSSI       int       `json:"rssi"`
	DeviceType string    `json:"device_type"`
	ObservedAt time.Time `json:"observed_at"`
}

// InsertDetections persists one scan pass in a single transaction.
// An empty pass is a no-op and leaves the database untouched.
func (db *DB) InsertDetections(devices []scan.Device) error {
	if len(devices) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO detections (address, name, rssi, device_type, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range devices {
		observedAt := d.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now()
		}
		if _, err := stmt.Exec(d.Address, d.Name, d.RSSI, d.DeviceType, observedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert detection for %s: %w", d.Address, err)
		}
	}

	return tx.Commit()
}

// TopDevice is one entry in the summary's most-seen list.
type TopDevice struct {
	Address string `json:"address"`
	Count   int64  `json:"count"`
}

// Summary describes the whole detections table at a glance.
type Summary struct {
	TotalRecords  int64       `json:"total_records"`
	UniqueDevices int64       `json:"unique_devices"`
	TopDevices    []TopDevice `json:"top_devices"`
	FirstSeen     *time.Time  `json:"first_seen"`
	LastSeen      *time.Time  `json:"last_seen"`
}

// Summary computes aggregate counts over all stored detections. On an
// empty table the counts are zero and the seen bounds are null.
func (db *DB) Summary() (*Summary, error) {
	s := &Summary{TopDevices: []TopDevice{}}

	var firstSeen, lastSeen sql.NullInt64
	err := db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT address), MIN(observed_at), MAX(observed_at)
		FROM detections
	`).Scan(&s.TotalRecords, &s.UniqueDevices, &firstSeen, &lastSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	if firstSeen.Valid {
		t := time.UnixMilli(firstSeen.Int64).UTC()
		s.FirstSeen = &t
	}
	if lastSeen.Valid {
		t := time.UnixMilli(lastSeen.Int64).UTC()
		s.LastSeen = &t
	}

	// Ties on count break toward the lexically smaller address so the
	// top list is stable across calls.
	rows, err := db.Query(`
		SELECT address, COUNT(*) AS cnt
		FROM detections
		GROUP BY address
		ORDER BY cnt DESC, address ASC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var td TopDevice
		if err := rows.Scan(&td.Address, &td.Count); err != nil {
			return nil, err
		}
		s.TopDevices = append(s.TopDevices, td)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// RecentDetections returns the newest detections, newest first. Rows
// sharing a timestamp fall back to insertion order, newest first.
func (db *DB) RecentDetections(limit int) ([]Detection, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, address, name, rssi, device_type, observed_at
		FROM detections
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent detections: %w", err)
	}
	defer rows.Close()

	return scanDetections(rows)
}

// ClearResult reports the outcome of a ClearAll call.
type ClearResult struct {
	Success        bool  `json:"success"`
	RecordsDeleted int64 `json:"records_deleted"`
	RecordsBefore  int64 `json:"records_before"`
}

// ClearAll deletes every stored detection in one transaction, so the
// before-count and the deleted-count always agree.
func (db *DB) ClearAll() (*ClearResult, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var before int64
	if err := tx.QueryRow("SELECT COUNT(*) FROM detections").Scan(&before); err != nil {
		return nil, fmt.Errorf("failed to count detections: %w", err)
	}

	res, err := tx.Exec("DELETE FROM detections")
	if err != nil {
		return nil, fmt.Errorf("failed to delete detections: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &ClearResult{Success: true, RecordsDeleted: deleted, RecordsBefore: before}, nil
}

// ExportDetections returns detections from the last `hours` hours,
// newest first. hours <= 0 exports everything.
func (db *DB) ExportDetections(hours int) ([]Detection, error) {
	query := `
		SELECT id, address, name, rssi, device_type, observed_at
		FROM detections
		ORDER BY observed_at DESC, id DESC
	`
	var args []any
	if hours > 0 {
		query = `
			SELECT id, address, name, rssi, device_type, observed_at
			FROM detections
			WHERE observed_at >= ?
			ORDER BY observed_at DESC, id DESC
		`
		args = append(args, time.Now().Add(-time.Duration(hours)*time.Hour).UTC().UnixMilli())
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections for export: %w", err)
	}
	defer rows.Close()

	return scanDetections(rows)
}

// Health reports whether the store can currently serve queries. It
// never returns an error: a broken database is reported in the status
// fields so the health endpoint stays answerable.
type Health struct {
	Status       string     `json:"status"`
	Database     string     `json:"database"`
	TotalRecords int64      `json:"total_records"`
	LastSeen     *time.Time `json:"last_seen"`
	Timestamp    time.Time  `json:"timestamp"`
}

func (db *DB) Health() *Health {
	h := &Health{
		Status:    "ok",
		Database:  "connected",
		Timestamp: time.Now().UTC(),
	}

	var lastSeen sql.NullInt64
	err := db.QueryRow("SELECT COUNT(*), MAX(observed_at) FROM detections").Scan(&h.TotalRecords, &lastSeen)
	if err != nil {
		h.Status = "degraded"
		h.Database = fmt.Sprintf("error: %v", err)
		return h
	}
	if lastSeen.Valid {
		t := time.UnixMilli(lastSeen.Int64).UTC()
		h.LastSeen = &t
	}

	return h
}

func scanDetections(rows *sql.Rows) ([]Detection, error) {
	var detections []Detection
	for rows.Next() {
		var d Detection
		var observedAt int64
		if err := rows.Scan(&d.ID, &d.Address, &d.Name, &d.RSSI, &d.DeviceType, &observedAt); err != nil {
			return nil, err
		}
		d.ObservedAt = time.UnixMilli(observedAt).UTC()
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return detections, nil
}
