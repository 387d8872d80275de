// Package viewer resolves the employee number entered at login into the
// employee and the video they are assigned to watch.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/vidquiz/internal/store"
)

var (
	// ErrMissingViewerIdentity means the employee number is empty or unknown.
	ErrMissingViewerIdentity = errors.New("missing viewer identity")

	// ErrNoAssignment means the employee has no video to watch.
	ErrNoAssignment = errors.New("no video assigned")
)

// Employees looks employees up by number. store.EmployeeRepo satisfies it.
type Employees interface {
	ByNumber(ctx context.Context, number string) (*store.Employee, error)
}

// Assignments returns the video assigned to an employee. store.VideoRepo
// satisfies it.
type Assignments interface {
	AssignedVideo(ctx context.Context, employeeID string) (*store.Video, error)
}

// Identity is a resolved viewer.
type Identity struct {
	Employee store.Employee
	Video    store.Video
}

// Resolver turns employee numbers into identities.
type Resolver struct {
	employees   Employees
	assignments Assignments
}

func NewResolver(employees Employees, assignments Assignments) *Resolver {
	return &Resolver{employees: employees, assignments: assignments}
}

// Resolve looks up the employee by number and the video assigned to them.
func (r *Resolver) Resolve(ctx context.Context, employeeNumber string) (*Identity, error) {
	number := strings.TrimSpace(employeeNumber)
	if number == "" {
		return nil, ErrMissingViewerIdentity
	}

	emp, err := r.employees.ByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("employee %q: %w", number, ErrMissingViewerIdentity)
		}
		return nil, fmt.Errorf("look up employee: %w", err)
	}

	video, err := r.assignments.AssignedVideo(ctx, emp.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("employee %q: %w", number, ErrNoAssignment)
		}
		return nil, fmt.Errorf("look up assignment: %w", err)
	}

	return &Identity{Employee: *emp, Video: *video}, nil
}
