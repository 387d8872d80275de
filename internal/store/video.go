package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// videoRepo implements VideoRepo over the videos, video_questions and
// employee_video_assignments tables.
type videoRepo struct {
	db *sql.DB
}

func (r *videoRepo) Create(ctx context.Context, v *Video) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	query, args := builder().Insert(TableVideos).
		Columns("id", "video_url", "title").
		Values(v.ID, v.URL, v.Title).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save video: %w", err)
	}
	return nil
}

func (r *videoRepo) Get(ctx context.Context, id string) (*Video, error) {
	query, args := builder().Select("id", "video_url", "title").
		From(builder().Table(TableVideos)).
		Where(entsql.EQ("id", id)).
		Query()

	var v Video
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&v.ID, &v.URL, &v.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query video: %w", err)
	}
	return &v, nil
}

func (r *videoRepo) ReplaceQuestions(ctx context.Context, videoID string, qs []VideoQuestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(TableQuestions).
		Where(entsql.EQ("video_id", videoID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	for i := range qs {
		q := &qs[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.VideoID = videoID
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		query, args := builder().Insert(TableQuestions).
			Columns("id", "video_id", "timestamp", "question", "options", "correct_answer", "question_order").
			Values(q.ID, videoID, q.Timestamp, q.Question, string(opts), q.CorrectAnswer, q.QuestionOrder).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *videoRepo) Questions(ctx context.Context, videoID string) ([]VideoQuestion, error) {
	query, args := builder().Select("id", "video_id", "timestamp", "question", "options", "correct_answer", "question_order").
		From(builder().Table(TableQuestions)).
		Where(entsql.EQ("video_id", videoID)).
		OrderBy("question_order", "timestamp").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []VideoQuestion
	for rows.Next() {
		var (
			q    VideoQuestion
			opts string
		)
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Timestamp, &q.Question, &opts, &q.CorrectAnswer, &q.QuestionOrder); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Assign replaces any previous assignment: an employee watches one
// assigned video at a time.
func (r *videoRepo) Assign(ctx context.Context, employeeID, videoID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(TableAssignments).
		Where(entsql.EQ("employee_id", employeeID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}

	query, args = builder().Insert(TableAssignments).
		Columns("employee_id", "video_id").
		Values(employeeID, videoID).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *videoRepo) AssignedVideo(ctx context.Context, employeeID string) (*Video, error) {
	videos := builder().Table(TableVideos)
	assignments := builder().Table(TableAssignments)
	query, args := builder().Select(videos.C("id"), videos.C("video_url"), videos.C("title")).
		From(videos).
		Join(assignments).
		On(videos.C("id"), assignments.C("video_id")).
		Where(entsql.EQ(assignments.C("employee_id"), employeeID)).
		Limit(1).
		Query()

	var v Video
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&v.ID, &v.URL, &v.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query assigned video: %w", err)
	}
	return &v, nil
}
