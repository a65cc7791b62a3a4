package db

import (
	"database/sql"
	"fmt"
	"time"
)

// timelineScanCap bounds how many rows a single timeline query will
// pull from the table. When the window holds more, the oldest rows are
// the ones dropped.
const timelineScanCap = 10000

// TimelinePoint is one detection reduced to what the timeline chart needs.
type TimelinePoint struct {
	ObservedAt time.Time `json:"observed_at"`
	RSSI       int       `json:"rssi"`
}

// TimelineDevice groups a device's detections inside the window.
type TimelineDevice struct {
	Address    string          `json:"address"`
	Name       string          `json:"name"`
	Detections []TimelinePoint `json:"detections"`
}

// Timeline returns per-device detection histories for the last `hours`
// hours. Each device's points are in ascending time order, and devices
// are ordered by their earliest detection in the window.
func (db *DB) Timeline(hours int) ([]TimelineDevice, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour).UTC().UnixMilli()

	// Newest rows win the cap; the slice is walked backwards afterwards
	// to rebuild ascending order.
	rows, err := db.Query(`
		SELECT address, name, rssi, observed_at
		FROM detections
		WHERE observed_at >= ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`, since, timelineScanCap)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	type row struct {
		address    string
		name       string
		rssi       int
		observedAt int64
	}
	var fetched []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.address, &r.name, &r.rssi, &r.observedAt); err != nil {
			return nil, err
		}
		fetched = append(fetched, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	devices := []TimelineDevice{}
	index := make(map[string]int)
	for i := len(fetched) - 1; i >= 0; i-- {
		r := fetched[i]
		pos, ok := index[r.address]
		if !ok {
			pos = len(devices)
			index[r.address] = pos
			devices = append(devices, TimelineDevice{Address: r.address, Name: r.name})
		}
		d := &devices[pos]
		if d.Name == "" && r.name != "" {
			d.Name = r.name
		}
		d.Detections = append(d.Detections, TimelinePoint{
			ObservedAt: time.UnixMilli(r.observedAt).UTC(),
			RSSI:       r.rssi,
		})
	}

	return devices, nil
}

// ExportStats summarises what an export over the same window would contain.
type ExportStats struct {
	TotalRecords  int64      `json:"total_records"`
	UniqueDevices int64      `json:"unique_devices"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Hours         int        `json:"hours"`
}

// ExportStats reports record counts and time bounds for the last
// `hours` hours. hours <= 0 covers the whole table.
func (db *DB) ExportStats(hours int) (*ExportStats, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT address), MIN(observed_at), MAX(observed_at)
		FROM detections
	`
	var args []any
	if hours > 0 {
		query += " WHERE observed_at >= ?"
		args = append(args, time.Now().Add(-time.Duration(hours)*time.Hour).UTC().UnixMilli())
	}

	s := &ExportStats{Hours: hours}
	var start, end sql.NullInt64
	if err := db.QueryRow(query, args...).Scan(&s.TotalRecords, &s.UniqueDevices, &start, &end); err != nil {
		return nil, fmt.Errorf("failed to query export stats: %w", err)
	}
	if start.Valid {
		t := time.UnixMilli(start.Int64).UTC()
		s.StartTime = &t
	}
	if end.Valid {
		t := time.UnixMilli(end.Int64).UTC()
		s.EndTime = &t
	}

	return s, nil
}
