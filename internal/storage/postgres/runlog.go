package postgres

import (
	"context"
	"fmt"
	"time"
)

// RunStatus is the terminal state of one sync run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// RunRecord is one immutable row in sync_run_logs. Rows are only ever
// inserted by the pipeline and read by the admin surface.
type RunRecord struct {
	ID          int64     `json:"id"`
	Status      RunStatus `json:"status"`
	LogMessage  string    `json:"log_message"`
	OffersCount int       `json:"offers_synced_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunLogStore persists the append-only sync run history.
type RunLogStore struct {
	db *DB
}

func NewRunLogStore(db *DB) *RunLogStore { return &RunLogStore{db: db} }

func (s *RunLogStore) Insert(ctx context.Context, rec RunRecord) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO sync_run_logs (status, log_message, offers_synced_count) VALUES ($1, $2, $3)`,
		string(rec.Status), rec.LogMessage, rec.OffersCount)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *RunLogStore) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, status, log_message, offers_synced_count, created_at
		 FROM sync_run_logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var status string
		if err := rows.Scan(&r.ID, &status, &r.LogMessage, &r.OffersCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		r.Status = RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
