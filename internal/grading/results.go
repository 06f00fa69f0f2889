package grading

import (
	"context"
	"database/sql"
	"sync"
)

const (
	StateIncomplete = "incomplete"
	StateComplete   = "complete"
)

// Result is one grouping's marked total for an assignment.
type Result struct {
	AssignmentID int64   `json:"assignment_id"`
	GroupingID   string  `json:"grouping_id"`
	TotalMark    float64 `json:"total_mark"`
	State        string  `json:"marking_state"`
}

type ResultStore interface {
	// PutResult inserts or replaces the result of (AssignmentID, GroupingID).
	PutResult(ctx context.Context, r Result) error
	// CompletedTotals returns the totals of results in StateComplete.
	CompletedTotals(ctx context.Context, assignmentID int64) ([]float64, error)
	// GroupingsCount counts groupings with any result for the assignment.
	GroupingsCount(ctx context.Context, assignmentID int64) (int, error)
}

// ---- SQL ----

type SQLResultStore struct{ db *sql.DB }

func NewSQLResultStore(db *sql.DB) *SQLResultStore { return &SQLResultStore{db: db} }

func (s *SQLResultStore) PutResult(ctx context.Context, r Result) error {
	if r.State == "" {
		r.State = StateIncomplete
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO results (assignment_id, grouping_id, total_mark, marking_state)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (assignment_id, grouping_id) DO UPDATE
		SET total_mark=EXCLUDED.total_mark, marking_state=EXCLUDED.marking_state`,
		r.AssignmentID, r.GroupingID, r.TotalMark, r.State)
	return err
}

func (s *SQLResultStore) CompletedTotals(ctx context.Context, assignmentID int64) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT total_mark FROM results WHERE assignment_id=$1 AND marking_state=$2 ORDER BY id`,
		assignmentID, StateComplete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLResultStore) GroupingsCount(ctx context.Context, assignmentID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT grouping_id) FROM results WHERE assignment_id=$1`, assignmentID).Scan(&n)
	return n, err
}

// ---- memory ----

type memoryResults struct {
	mu   sync.RWMutex
	rows []Result
}

func NewInMemoryResultStore() ResultStore { return &memoryResults{} }

func (m *memoryResults) PutResult(_ context.Context, r Result) error {
	if r.State == "" {
		r.State = StateIncomplete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.rows {
		if old.AssignmentID == r.AssignmentID && old.GroupingID == r.GroupingID {
			m.rows[i] = r
			return nil
		}
	}
	m.rows = append(m.rows, r)
	return nil
}

func (m *memoryResults) CompletedTotals(_ context.Context, assignmentID int64) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []float64{}
	for _, r := range m.rows {
		if r.AssignmentID == assignmentID && r.State == StateComplete {
			out = append(out, r.TotalMark)
		}
	}
	return out, nil
}

func (m *memoryResults) GroupingsCount(_ context.Context, assignmentID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.rows {
		if r.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}
