package criteria

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu          sync.RWMutex
	assignments map[int64]Assignment
	criteria    map[int64]Criterion
	seq         int64
}

func NewInMemoryStore() Store {
	return &memoryStore{
		assignments: map[int64]Assignment{},
		criteria:    map[int64]Criterion{},
	}
}

func (m *memoryStore) PutAssignment(_ context.Context, a Assignment) (Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = int64(len(m.assignments)) + 1
		for m.assignments[a.ID].ID != 0 {
			a.ID++
		}
	}
	m.assignments[a.ID] = a
	return a, nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id int64) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (m *memoryStore) ListCriteria(_ context.Context, assignmentID int64) ([]Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(assignmentID), nil
}

func (m *memoryStore) listLocked(assignmentID int64) []Criterion {
	out := []Criterion{}
	for _, c := range m.criteria {
		if c.AssignmentID == assignmentID {
			out = append(out, cloneCriterion(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryStore) GetCriterion(_ context.Context, id int64) (Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.criteria[id]
	if !ok {
		return Criterion{}, ErrCriterionNotFound
	}
	return cloneCriterion(c), nil
}

func (m *memoryStore) ReplaceCriteria(_ context.Context, assignmentID int64, list []Criterion) ([]Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignmentID]; !ok {
		return nil, ErrAssignmentNotFound
	}
	for id, c := range m.criteria {
		if c.AssignmentID == assignmentID {
			delete(m.criteria, id)
		}
	}
	out := make([]Criterion, 0, len(list))
	for _, c := range list {
		m.seq++
		c = cloneCriterion(c)
		c.ID = m.seq
		c.AssignmentID = assignmentID
		m.criteria[c.ID] = c
		out = append(out, cloneCriterion(c))
	}
	return out, nil
}

func (m *memoryStore) SetPositions(_ context.Context, assignmentID int64, order []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.listLocked(assignmentID)
	ids := make([]int64, len(existing))
	for i, c := range existing {
		ids[i] = c.ID
	}
	pos, err := ReorderPositions(ids, order)
	if err != nil {
		return err
	}
	for id, p := range pos {
		c := m.criteria[id]
		c.Position = p
		m.criteria[id] = c
	}
	return nil
}

func (m *memoryStore) CreateCriterion(_ context.Context, c Criterion) (Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[c.AssignmentID]; !ok {
		return Criterion{}, ErrAssignmentNotFound
	}
	m.seq++
	c = cloneCriterion(c)
	c.ID = m.seq
	c.Position = len(m.listLocked(c.AssignmentID)) + 1
	m.criteria[c.ID] = c
	return cloneCriterion(c), nil
}

func (m *memoryStore) UpdateCriterion(_ context.Context, c Criterion) (Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.criteria[c.ID]
	if !ok {
		return Criterion{}, ErrCriterionNotFound
	}
	c = cloneCriterion(c)
	c.AssignmentID = old.AssignmentID
	c.Position = old.Position
	m.criteria[c.ID] = c
	return cloneCriterion(c), nil
}

func (m *memoryStore) DeleteCriterion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.criteria[id]
	if !ok {
		return ErrCriterionNotFound
	}
	delete(m.criteria, id)
	for i, rest := range m.listLocked(c.AssignmentID) {
		rest.Position = i + 1
		m.criteria[rest.ID] = rest
	}
	return nil
}

func cloneCriterion(c Criterion) Criterion {
	if c.Levels != nil {
		c.Levels = append([]Level(nil), c.Levels...)
	}
	return c
}
