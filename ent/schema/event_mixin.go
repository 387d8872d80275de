package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// EventMixin provides the fields shared by all append-only quiz events.
// Every event entity should include this mixin to get consistent
// sequence numbering and the session/viewer envelope.
type EventMixin struct {
	mixin.Schema
}

func (EventMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Monotonically increasing global sequence number"),
		field.String("session_id").
			Default("").
			Immutable().
			Comment("Quiz session that produced the event"),
		field.String("employee_id").
			Immutable(),
		field.String("video_id").
			Immutable(),
	}
}

func (EventMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("employee_id", "video_id"),
	}
}
