package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Parse log statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// ParseLog records the outcome of one ingest request.
type ParseLog struct {
	ID            int64            `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Source        string           `json:"source"`
	Status        string           `json:"status"`
	Received      int              `json:"received"`
	Parsed        int              `json:"parsed"`
	Stored        int              `json:"stored"`
	Duplicates    int              `json:"duplicates"`
	LowConfidence int              `json:"low_confidence"`
	Rejected      int              `json:"rejected"`
	DurationMs    *int             `json:"duration_ms"`
	ErrorMessage  *string          `json:"error_message"`
	Metadata      *json.RawMessage `json:"metadata"`
}

// InsertParseLog creates a new parse log entry and returns its ID.
func (db *DB) InsertParseLog(ctx context.Context, log ParseLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO parse_logs (source, status, received, parsed, stored, duplicates,
		 low_confidence, rejected, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING id`,
		log.Source, log.Status, log.Received, log.Parsed, log.Stored, log.Duplicates,
		log.LowConfidence, log.Rejected, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting parse log: %w", err)
	}
	return id, nil
}

// UpdateParseLog overwrites the counters and status of entry id.
func (db *DB) UpdateParseLog(ctx context.Context, id int64, log ParseLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE parse_logs SET
		 status = $2, received = $3, parsed = $4, stored = $5, duplicates = $6,
		 low_confidence = $7, rejected = $8, duration_ms = $9, error_message = $10, metadata = $11
		 WHERE id = $1`,
		id, log.Status, log.Received, log.Parsed, log.Stored, log.Duplicates,
		log.LowConfidence, log.Rejected, log.DurationMs, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating parse log %d: %w", id, err)
	}
	return nil
}

// QueryParseLogs returns the most recent parse logs.
func (db *DB) QueryParseLogs(ctx context.Context, limit int) ([]ParseLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, created_at, source, status, received, parsed, stored, duplicates,
		 low_confidence, rejected, duration_ms, error_message, metadata
		 FROM parse_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying parse logs: %w", err)
	}
	defer rows.Close()

	result := []ParseLog{}
	for rows.Next() {
		var l ParseLog
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status, &l.Received, &l.Parsed,
			&l.Stored, &l.Duplicates, &l.LowConfidence, &l.Rejected,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning parse log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
