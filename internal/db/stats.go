package db

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SignalStats summarises a single device's RSSI distribution over a
// recent window. Samples is zero when the device was not seen.
type SignalStats struct {
	Address  string  `json:"address"`
	Hours    int     `json:"hours"`
	Samples  int     `json:"samples"`
	MinRSSI  int     `json:"min_rssi"`
	MaxRSSI  int     `json:"max_rssi"`
	MeanRSSI float64 `json:"mean_rssi"`
	P50RSSI  float64 `json:"p50_rssi"`
	P85RSSI  float64 `json:"p85_rssi"`
	P98RSSI  float64 `json:"p98_rssi"`
}

// SignalStats computes RSSI statistics for one address over the last
// `hours` hours. hours <= 0 covers the whole table.
func (db *DB) SignalStats(address string, hours int) (*SignalStats, error) {
	query := `SELECT rssi FROM detections WHERE address = ?`
	args := []any{address}
	if hours > 0 {
		query += " AND observed_at >= ?"
		args = append(args, time.Now().Add(-time.Duration(hours)*time.Hour).UTC().UnixMilli())
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rssi samples: %w", err)
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var rssi int
		if err := rows.Scan(&rssi); err != nil {
			return nil, err
		}
		samples = append(samples, float64(rssi))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s := &SignalStats{Address: address, Hours: hours, Samples: len(samples)}
	if len(samples) == 0 {
		return s, nil
	}

	sort.Float64s(samples)
	s.MinRSSI = int(samples[0])
	s.MaxRSSI = int(samples[len(samples)-1])
	s.MeanRSSI = stat.Mean(samples, nil)
	s.P50RSSI = stat.Quantile(0.50, stat.Empirical, samples, nil)
	s.P85RSSI = stat.Quantile(0.85, stat.Empirical, samples, nil)
	s.P98RSSI = stat.Quantile(0.98, stat.Empirical, samples, nil)

	return s, nil
}
