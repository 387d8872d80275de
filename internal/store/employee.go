package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// employeeRepo implements EmployeeRepo over the employees table.
type employeeRepo struct {
	db *sql.DB
}

func (r *employeeRepo) Create(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query, args := builder().Insert(TableEmployees).
		Columns("id", "employee_number", "full_name").
		Values(e.ID, e.EmployeeNumber, e.FullName).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save employee: %w", err)
	}
	return nil
}

func (r *employeeRepo) ByNumber(ctx context.Context, number string) (*Employee, error) {
	query, args := builder().Select("id", "employee_number", "full_name").
		From(builder().Table(TableEmployees)).
		Where(entsql.EQ("employee_number", number)).
		Limit(1).
		Query()

	var e Employee
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.EmployeeNumber, &e.FullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query employee by number: %w", err)
	}
	return &e, nil
}

func (r *employeeRepo) List(ctx context.Context) ([]Employee, error) {
	query, args := builder().Select("id", "employee_number", "full_name").
		From(builder().Table(TableEmployees)).
		OrderBy("full_name").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.EmployeeNumber, &e.FullName); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
