package criteria

import "context"

// Store persists assignments' criteria. ReplaceCriteria and SetPositions are
// each one atomic unit: either every row changes or none does.
type Store interface {
	PutAssignment(ctx context.Context, a Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id int64) (Assignment, error)

	ListCriteria(ctx context.Context, assignmentID int64) ([]Criterion, error) // ordered by position
	GetCriterion(ctx context.Context, id int64) (Criterion, error)

	// ReplaceCriteria deletes every criterion of the assignment and inserts
	// list with the positions it carries. Returns the inserted rows with IDs.
	ReplaceCriteria(ctx context.Context, assignmentID int64, list []Criterion) ([]Criterion, error)
	// SetPositions assigns position i+1 to order[i]. Fails with
	// ErrCriteriaNotFound unless order is a permutation of the assignment's ids.
	SetPositions(ctx context.Context, assignmentID int64, order []int64) error

	CreateCriterion(ctx context.Context, c Criterion) (Criterion, error) // appended last
	UpdateCriterion(ctx context.Context, c Criterion) (Criterion, error)
	DeleteCriterion(ctx context.Context, id int64) error // compacts positions
}
