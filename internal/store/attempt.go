package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// attemptRepo implements AttemptRepo over the test_attempts table.
type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) Start(ctx context.Context, employeeID, videoID string, at time.Time) (string, error) {
	id := uuid.NewString()
	query, args := builder().Insert(TableAttempts).
		Columns("id", "employee_id", "video_id", "started_at", "passed", "is_completed").
		Values(id, employeeID, videoID, at.UTC(), false, false).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("save attempt: %w", err)
	}
	return id, nil
}

func (r *attemptRepo) Complete(ctx context.Context, id string, passed bool, at time.Time) error {
	query, args := builder().Update(TableAttempts).
		Set("completed_at", at.UTC()).
		Set("passed", passed).
		Set("is_completed", true).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attemptRepo) List(ctx context.Context, opts QueryOpts) ([]TestAttempt, error) {
	sel := builder().Select("id", "employee_id", "video_id", "started_at", "completed_at", "passed", "is_completed").
		From(builder().Table(TableAttempts)).
		OrderBy(entsql.Desc("started_at"))

	var preds []*entsql.Predicate
	if opts.EmployeeID != "" {
		preds = append(preds, entsql.EQ("employee_id", opts.EmployeeID))
	}
	if opts.VideoID != "" {
		preds = append(preds, entsql.EQ("video_id", opts.VideoID))
	}
	if opts.SessionID != "" {
		preds = append(preds, entsql.EQ("id", opts.SessionID))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("started_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("started_at", opts.To.UTC()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []TestAttempt
	for rows.Next() {
		var (
			a         TestAttempt
			completed sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.VideoID, &a.StartedAt, &completed, &a.Passed, &a.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if completed.Valid {
			a.CompletedAt = completed.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
