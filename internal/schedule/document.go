package schedule

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/vidquiz/internal/store"
)

// Document is the import format for a video and its checkpoints.
type Document struct {
	Video     DocumentVideo      `json:"video"`
	Questions []DocumentQuestion `json:"questions"`
}

// DocumentVideo describes the video a document targets.
type DocumentVideo struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DocumentQuestion mirrors one video_questions row.
type DocumentQuestion struct {
	ID            string   `json:"id"`
	Timestamp     float64  `json:"timestamp"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	QuestionOrder int      `json:"question_order"`
}

// documentSchema rejects structurally broken documents before conversion.
// Semantic checks (duplicate times, index range) stay in New.
var documentSchema = map[string]any{
	"type":     "object",
	"required": []any{"video", "questions"},
	"properties": map[string]any{
		"video": map[string]any{
			"type":     "object",
			"required": []any{"url", "title"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "string"},
				"url":   map[string]any{"type": "string", "minLength": 1},
				"title": map[string]any{"type": "string", "minLength": 1},
			},
		},
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "timestamp", "question", "options", "correct_answer"},
				"properties": map[string]any{
					"id":        map[string]any{"type": "string", "minLength": 1},
					"timestamp": map[string]any{"type": "number", "minimum": 0},
					"question":  map[string]any{"type": "string", "minLength": 1},
					"options": map[string]any{
						"type":     "array",
						"minItems": MinOptions,
						"items":    map[string]any{"type": "string"},
					},
					"correct_answer": map[string]any{"type": "integer", "minimum": 0},
					"question_order": map[string]any{"type": "integer"},
				},
				"additionalProperties": false,
			},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// getCompiledSchema compiles documentSchema once.
func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value (any), not Go maps
		// with typed slices, so round-trip through JSON.
		defBytes, err := json.Marshal(documentSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://schedule-document.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// ParseDocument validates raw JSON against the document schema, decodes it
// and checks that its questions form a valid schedule.
func ParseDocument(raw []byte) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCheckpoint, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if _, err := New(doc.Video.ID, doc.Rows()); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Rows converts the document questions into store rows.
func (d *Document) Rows() []store.VideoQuestion {
	rows := make([]store.VideoQuestion, 0, len(d.Questions))
	for _, q := range d.Questions {
		rows = append(rows, store.VideoQuestion{
			ID:            q.ID,
			VideoID:       d.Video.ID,
			Timestamp:     q.Timestamp,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			QuestionOrder: q.QuestionOrder,
		})
	}
	return rows
}
