package store

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names. They match the record shapes of the hosted persistence
// service the quiz was first built against, so exports stay compatible.
const (
	TableEmployees   = "employees"
	TableVideos      = "videos"
	TableQuestions   = "video_questions"
	TableAssignments = "employee_video_assignments"
	TableAttempts    = "test_attempts"
	TableResponses   = "user_responses"
	TableRestarts    = "video_restarts"
	TableViews       = "video_views"
)

var (
	employeesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "employee_number", Type: field.TypeString, Unique: true},
		{Name: "full_name", Type: field.TypeString},
	}
	employeesTable = &schema.Table{
		Name:       TableEmployees,
		Columns:    employeesColumns,
		PrimaryKey: []*schema.Column{employeesColumns[0]},
	}

	videosColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "video_url", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
	}
	videosTable = &schema.Table{
		Name:       TableVideos,
		Columns:    videosColumns,
		PrimaryKey: []*schema.Column{videosColumns[0]},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
		{Name: "timestamp", Type: field.TypeFloat64},
		{Name: "question", Type: field.TypeString},
		{Name: "options", Type: field.TypeString},
		{Name: "correct_answer", Type: field.TypeInt},
		{Name: "question_order", Type: field.TypeInt, Default: 0},
	}
	questionsTable = &schema.Table{
		Name:       TableQuestions,
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "videoquestion_video_id", Columns: []*schema.Column{questionsColumns[1]}},
		},
	}

	assignmentsColumns = []*schema.Column{
		{Name: "employee_id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
	}
	assignmentsTable = &schema.Table{
		Name:       TableAssignments,
		Columns:    assignmentsColumns,
		PrimaryKey: []*schema.Column{assignmentsColumns[0], assignmentsColumns[1]},
	}

	attemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "employee_id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "passed", Type: field.TypeBool, Default: false},
		{Name: "is_completed", Type: field.TypeBool, Default: false},
	}
	attemptsTable = &schema.Table{
		Name:       TableAttempts,
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "testattempt_employee_id_video_id", Columns: []*schema.Column{attemptsColumns[1], attemptsColumns[2]}},
		},
	}

	responsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "employee_id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "selected_answer", Type: field.TypeString},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "attempt_number", Type: field.TypeInt},
		{Name: "answered_at", Type: field.TypeTime},
	}
	responsesTable = &schema.Table{
		Name:       TableResponses,
		Columns:    responsesColumns,
		PrimaryKey: []*schema.Column{responsesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "userresponse_employee_id_video_id", Columns: []*schema.Column{responsesColumns[3], responsesColumns[4]}},
			{Name: "userresponse_answered_at", Columns: []*schema.Column{responsesColumns[9]}},
		},
	}

	restartsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "employee_id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
		{Name: "restart_count", Type: field.TypeInt},
		{Name: "restarted_at", Type: field.TypeTime},
	}
	restartsTable = &schema.Table{
		Name:       TableRestarts,
		Columns:    restartsColumns,
		PrimaryKey: []*schema.Column{restartsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "videorestart_employee_id_video_id", Columns: []*schema.Column{restartsColumns[3], restartsColumns[4]}},
		},
	}

	viewsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "employee_id", Type: field.TypeString},
		{Name: "video_id", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
	}
	viewsTable = &schema.Table{
		Name:       TableViews,
		Columns:    viewsColumns,
		PrimaryKey: []*schema.Column{viewsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "videoview_employee_id_video_id", Columns: []*schema.Column{viewsColumns[3], viewsColumns[4]}},
		},
	}

	tables = []*schema.Table{
		employeesTable,
		videosTable,
		questionsTable,
		assignmentsTable,
		attemptsTable,
		responsesTable,
		restartsTable,
		viewsTable,
	}
)

// migrate creates or upgrades every table the store owns.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
