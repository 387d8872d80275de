package store

import (
	"context"
	"fmt"
)

func (r *eventRepo) AppendView(ctx context.Context, data ViewEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(TableViews).
		Columns("sequence", "session_id", "employee_id", "video_id", "started_at").
		Values(seqNum, data.SessionID, data.EmployeeID, data.VideoID, data.StartedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save view event: %w", err)
	}
	return nil
}

func (r *eventRepo) Views(ctx context.Context, opts QueryOpts) ([]ViewRecord, error) {
	sel := builder().Select("sequence", "session_id", "employee_id", "video_id", "started_at").
		From(builder().Table(TableViews)).
		OrderBy("sequence")
	query, args := applyOpts(sel, opts, "started_at").Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query view events: %w", err)
	}
	defer rows.Close()

	var out []ViewRecord
	for rows.Next() {
		var rec ViewRecord
		if err := rows.Scan(&rec.Sequence, &rec.SessionID, &rec.EmployeeID, &rec.VideoID, &rec.StartedAt); err != nil {
			return nil, fmt.Errorf("scan view event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
