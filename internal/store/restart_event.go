package store

import (
	"context"
	"fmt"
)

func (r *eventRepo) AppendRestart(ctx context.Context, data RestartEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(TableRestarts).
		Columns("sequence", "session_id", "employee_id", "video_id", "restart_count", "restarted_at").
		Values(seqNum, data.SessionID, data.EmployeeID, data.VideoID, data.RestartCount, data.RestartedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save restart event: %w", err)
	}
	return nil
}

func (r *eventRepo) Restarts(ctx context.Context, opts QueryOpts) ([]RestartRecord, error) {
	sel := builder().Select("sequence", "session_id", "employee_id", "video_id", "restart_count", "restarted_at").
		From(builder().Table(TableRestarts)).
		OrderBy("sequence")
	query, args := applyOpts(sel, opts, "restarted_at").Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restart events: %w", err)
	}
	defer rows.Close()

	var out []RestartRecord
	for rows.Next() {
		var rec RestartRecord
		if err := rows.Scan(&rec.Sequence, &rec.SessionID, &rec.EmployeeID, &rec.VideoID,
			&rec.RestartCount, &rec.RestartedAt); err != nil {
			return nil, fmt.Errorf("scan restart event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
