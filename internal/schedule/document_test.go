package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocument = `{
  "video": {"id": "checkout-101", "url": "/video.mp4", "title": "Checkout basics"},
  "questions": [
    {"id": "q1", "timestamp": 96, "question": "Scan one by one?", "options": ["Yes", "No"], "correct_answer": 1, "question_order": 1},
    {"id": "q2", "timestamp": 183, "question": "Before a break?", "options": ["Lock", "Close", "Sign", "All"], "correct_answer": 3, "question_order": 2}
  ]
}`

func TestParseDocument_Valid(t *testing.T) {
	doc, err := ParseDocument([]byte(validDocument))
	require.NoError(t, err)

	assert.Equal(t, "checkout-101", doc.Video.ID)
	rows := doc.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "checkout-101", rows[0].VideoID)
	assert.Equal(t, 3, rows[1].CorrectAnswer)
}

func TestParseDocument_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{
			name: "no questions",
			raw:  `{"video": {"url": "/v.mp4", "title": "T"}, "questions": []}`,
			want: ErrMalformedCheckpoint,
		},
		{
			name: "single option",
			raw:  `{"video": {"url": "/v.mp4", "title": "T"}, "questions": [{"id": "q1", "timestamp": 1, "question": "?", "options": ["a"], "correct_answer": 0}]}`,
			want: ErrMalformedCheckpoint,
		},
		{
			name: "unknown field",
			raw:  `{"video": {"url": "/v.mp4", "title": "T"}, "questions": [{"id": "q1", "timestamp": 1, "question": "?", "options": ["a", "b"], "correct_answer": 0, "answer": "a"}]}`,
			want: ErrMalformedCheckpoint,
		},
		{
			name: "index out of range",
			raw:  `{"video": {"url": "/v.mp4", "title": "T"}, "questions": [{"id": "q1", "timestamp": 1, "question": "?", "options": ["a", "b"], "correct_answer": 2}]}`,
			want: ErrMalformedCheckpoint,
		},
		{
			name: "duplicate time",
			raw: `{"video": {"url": "/v.mp4", "title": "T"}, "questions": [
				{"id": "q1", "timestamp": 5, "question": "?", "options": ["a", "b"], "correct_answer": 0},
				{"id": "q2", "timestamp": 5, "question": "?", "options": ["a", "b"], "correct_answer": 0}]}`,
			want: ErrScheduleConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDocument_InvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
