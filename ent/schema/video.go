package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Video is a training video.
type Video struct {
	ent.Schema
}

func (Video) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("video_url").
			NotEmpty(),
		field.String("title"),
	}
}

// VideoQuestion is one checkpoint of a video's schedule.
type VideoQuestion struct {
	ent.Schema
}

func (VideoQuestion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("video_id"),
		field.Float("timestamp").
			Min(0).
			Comment("Trigger time in seconds"),
		field.String("question"),
		field.String("options").
			Comment("JSON array of option texts"),
		field.Int("correct_answer").
			Comment("Zero-based index into options"),
		field.Int("question_order").
			Default(0),
	}
}

func (VideoQuestion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("video_id"),
	}
}

// EmployeeVideoAssignment maps an employee to the video they must watch.
type EmployeeVideoAssignment struct {
	ent.Schema
}

func (EmployeeVideoAssignment) Fields() []ent.Field {
	return []ent.Field{
		field.String("employee_id"),
		field.String("video_id"),
	}
}
