package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TestAttempt is the persisted record of one quiz session. It is created
// when the session starts and completed when the video ends.
type TestAttempt struct {
	ent.Schema
}

func (TestAttempt) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("employee_id"),
		field.String("video_id"),
		field.Time("started_at").
			Immutable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Bool("passed").
			Default(false),
		field.Bool("is_completed").
			Default(false),
	}
}

func (TestAttempt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("employee_id", "video_id"),
	}
}
