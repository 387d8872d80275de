package store

import (
	"testing"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/stretchr/testify/assert"

	entschema "github.com/abhisek/vidquiz/ent/schema"
)

// TestTablesMatchEntSchema keeps the migration tables in step with the
// declared entities.
func TestTablesMatchEntSchema(t *testing.T) {
	tests := []struct {
		entity ent.Interface
		table  *schema.Table
	}{
		{entschema.Employee{}, employeesTable},
		{entschema.Video{}, videosTable},
		{entschema.VideoQuestion{}, questionsTable},
		{entschema.EmployeeVideoAssignment{}, assignmentsTable},
		{entschema.TestAttempt{}, attemptsTable},
		{entschema.UserResponse{}, responsesTable},
		{entschema.VideoRestart{}, restartsTable},
		{entschema.VideoView{}, viewsTable},
	}

	for _, tt := range tests {
		t.Run(tt.table.Name, func(t *testing.T) {
			var fields []ent.Field
			for _, m := range tt.entity.Mixin() {
				fields = append(fields, m.Fields()...)
			}
			fields = append(fields, tt.entity.Fields()...)

			cols := tt.table.Columns
			if len(cols) > 0 && cols[0].Increment {
				cols = cols[1:]
			}
			if !assert.Len(t, fields, len(cols)) {
				return
			}
			for i, f := range fields {
				d := f.Descriptor()
				assert.Equal(t, cols[i].Name, d.Name)
				assert.Equal(t, cols[i].Type, d.Info.Type, "column %s", d.Name)
			}
		})
	}
}
