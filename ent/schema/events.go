package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// UserResponse records one submitted answer.
type UserResponse struct {
	ent.Schema
}

func (UserResponse) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (UserResponse) Fields() []ent.Field {
	return []ent.Field{
		field.String("question_id").
			Comment("Checkpoint that was answered"),
		field.String("selected_answer"),
		field.Bool("is_correct"),
		field.Int("attempt_number").
			Range(1, 2),
		field.Time("answered_at"),
	}
}

func (UserResponse) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("answered_at"),
	}
}

// VideoRestart records one forced restart after a second wrong answer.
type VideoRestart struct {
	ent.Schema
}

func (VideoRestart) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (VideoRestart) Fields() []ent.Field {
	return []ent.Field{
		field.Int("restart_count").
			Positive().
			Comment("1-based index of this restart within the session"),
		field.Time("restarted_at"),
	}
}

// VideoView records the first play of each sub-session.
type VideoView struct {
	ent.Schema
}

func (VideoView) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (VideoView) Fields() []ent.Field {
	return []ent.Field{
		field.Time("started_at"),
	}
}
