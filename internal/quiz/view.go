package quiz

import (
	"math"

	"github.com/abhisek/vidquiz/internal/ledger"
)

// OpenQuestion is the presentation of the open checkpoint. It never carries
// the correct answer.
type OpenQuestion struct {
	CheckpointID string   `json:"checkpoint_id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	AttemptsUsed int      `json:"attempts_used"`
	AttemptsLeft int      `json:"attempts_left"`
	WrongAnswer  string   `json:"wrong_answer,omitempty"`
}

// View is a read-only snapshot of a session.
type View struct {
	SessionID    string        `json:"session_id"`
	EmployeeID   string        `json:"employee_id"`
	VideoID      string        `json:"video_id"`
	State        State         `json:"state"`
	Offline      bool          `json:"offline"`
	RestartCount int           `json:"restart_count"`
	Position     float64       `json:"position"`
	Question     *OpenQuestion `json:"question,omitempty"`
	Answered     int           `json:"answered"`
	Total        int           `json:"total"`
	Score        float64       `json:"score"`
	Passed       bool          `json:"passed"`
}

// View returns a snapshot of the session for presentation.
func (m *Machine) View() View {
	v := View{
		SessionID:    m.sc.SessionID,
		EmployeeID:   m.sc.Viewer.EmployeeID,
		VideoID:      m.sc.Viewer.VideoID,
		State:        m.sc.State,
		Offline:      m.sc.State != NotStarted && m.sc.RecordID == "",
		RestartCount: m.sc.RestartCount,
		Answered:     m.sc.Ledger.ResolvedCount(),
		Total:        m.schedule.Len(),
		Score:        m.sc.Score,
		Passed:       m.sc.Passed,
	}
	if pos := m.sc.Tracker.Position(); !math.IsInf(pos, -1) {
		v.Position = pos
	}
	if cp := m.sc.Current; cp != nil {
		st := m.sc.Ledger.State(cp.ID)
		q := &OpenQuestion{
			CheckpointID: cp.ID,
			Prompt:       cp.Prompt,
			Options:      append([]string(nil), cp.Options...),
			AttemptsUsed: st.AttemptsUsed,
			AttemptsLeft: ledger.MaxAttempts - st.AttemptsUsed,
		}
		if m.sc.HasLastWrongAnswer {
			q.WrongAnswer = m.sc.LastWrongAnswer
		}
		v.Question = q
	}
	return v
}
