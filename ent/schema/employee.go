package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Employee is a viewer identified by their employee number.
type Employee struct {
	ent.Schema
}

func (Employee) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("employee_number").
			Unique().
			NotEmpty(),
		field.String("full_name"),
	}
}
