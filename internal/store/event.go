package store

// Event log infrastructure.
//
// Responses, restarts and views each live in their own table. Every row
// carries a global sequence number so readers can replay the combined log
// in the order the emitter wrote it.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared across
// all event tables. Per-table auto-increment IDs can't order a restart
// against the answer that caused it; this counter can.
//
// Uses raw SQL because the ent builders have no atomic counter. The mutex
// serializes within the process; the RETURNING clause makes the increment
// atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo over the response, restart and view tables.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// eventPredicates translates QueryOpts into predicates over an event table
// whose wall-clock column is timeCol.
func eventPredicates(opts QueryOpts, timeCol string) []*entsql.Predicate {
	var preds []*entsql.Predicate
	if opts.EmployeeID != "" {
		preds = append(preds, entsql.EQ("employee_id", opts.EmployeeID))
	}
	if opts.VideoID != "" {
		preds = append(preds, entsql.EQ("video_id", opts.VideoID))
	}
	if opts.SessionID != "" {
		preds = append(preds, entsql.EQ("session_id", opts.SessionID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(timeCol, opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(timeCol, opts.To.UTC()))
	}
	return preds
}

// applyOpts adds the filters and limit of opts to sel.
func applyOpts(sel *entsql.Selector, opts QueryOpts, timeCol string) *entsql.Selector {
	if preds := eventPredicates(opts, timeCol); len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	return sel
}
