// Package journal keeps a write-only audit trail of finished flows.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/centralino/internal/db"
	"github.com/example/centralino/internal/step"
)

type Entry struct {
	ID        int64
	RequestID string
	Flow      string
	Status    string
	Reached   string
	Message   string
	Venue     string
	PartySize string
	Date      string
	Time      string
	DryRun    bool
	Attempts  []step.Attempt
	Duration  time.Duration
	CreatedAt time.Time
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, e Entry) error {
	attempts, err := json.Marshal(e.Attempts)
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	err = r.db.Exec(ctx, `
INSERT INTO flow_runs(request_id,flow,status,reached,message,venue,party_size,date,time,dry_run,attempts,duration_ms)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,NULLIF($9,''),$10,$11,$12)`,
		e.RequestID, e.Flow, e.Status, e.Reached, e.Message, e.Venue, e.PartySize, e.Date, e.Time, e.DryRun, attempts, e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.RequestID, err)
	}
	return nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,request_id,flow,status,reached,message,COALESCE(venue,''),party_size,date,COALESCE(time,''),dry_run,attempts,duration_ms,created_at
FROM flow_runs
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var attempts []byte
		var ms int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Flow, &e.Status, &e.Reached, &e.Message, &e.Venue,
			&e.PartySize, &e.Date, &e.Time, &e.DryRun, &attempts, &ms, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(attempts) > 0 {
			if err := json.Unmarshal(attempts, &e.Attempts); err != nil {
				return nil, fmt.Errorf("decode attempts of %d: %w", e.ID, err)
			}
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries created before cutoff and returns how many went.
func (r *Repo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.db.ExecCount(ctx, `DELETE FROM flow_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return n, nil
}
