package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendResponse(ctx context.Context, data ResponseEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(TableResponses).
		Columns("sequence", "session_id", "employee_id", "video_id", "question_id",
			"selected_answer", "is_correct", "attempt_number", "answered_at").
		Values(seqNum, data.SessionID, data.EmployeeID, data.VideoID, data.QuestionID,
			data.SelectedAnswer, data.IsCorrect, data.AttemptNumber, data.AnsweredAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save response event: %w", err)
	}
	return nil
}

func (r *eventRepo) Responses(ctx context.Context, opts QueryOpts) ([]ResponseRecord, error) {
	sel := builder().Select("sequence", "session_id", "employee_id", "video_id", "question_id",
		"selected_answer", "is_correct", "attempt_number", "answered_at").
		From(builder().Table(TableResponses)).
		OrderBy(entsql.Desc("sequence"))
	query, args := applyOpts(sel, opts, "answered_at").Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query response events: %w", err)
	}
	defer rows.Close()

	var out []ResponseRecord
	for rows.Next() {
		var rec ResponseRecord
		if err := rows.Scan(&rec.Sequence, &rec.SessionID, &rec.EmployeeID, &rec.VideoID, &rec.QuestionID,
			&rec.SelectedAnswer, &rec.IsCorrect, &rec.AttemptNumber, &rec.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan response event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
