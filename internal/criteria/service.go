package criteria

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	EventCriteriaReplaced  = "CriteriaReplaced"
	EventCriteriaReordered = "CriteriaReordered"
)

// EventRecorder receives an audit event after a successful write.
type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Option func(*Service)

func WithEvents(r EventRecorder) Option { return func(s *Service) { s.events = r } }
func WithLogger(l *slog.Logger) Option  { return func(s *Service) { s.log = l } }
func WithPolicy(p Policy) Option        { return func(s *Service) { s.policy = p } }

// Service runs criteria operations against a Store. Callers are expected to
// have authorized the actor for the target assignment already.
type Service struct {
	store  Store
	policy Policy
	events EventRecorder
	log    *slog.Logger
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, policy: DefaultPolicy(), log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.policy = s.policy.normalized()
	return s
}

func (s *Service) Policy() Policy { return s.policy }

// Import validates data and, when at least one entry survives, replaces all
// of the assignment's criteria with the survivors in one store call. With no
// survivors nothing is written and only the errors come back.
func (s *Service) Import(ctx context.Context, assignmentID int64, data []byte) (ImportResult, error) {
	if _, err := s.store.GetAssignment(ctx, assignmentID); err != nil {
		return ImportResult{}, err
	}
	plan, err := Validate(data, s.policy)
	if err != nil {
		return ImportResult{}, err
	}
	for _, e := range plan.Errors {
		s.log.Debug("criteria entry rejected", "assignment_id", assignmentID, "name", e.Name, "detail", e.Detail)
	}

	res := ImportResult{Created: []Criterion{}, Errors: plan.Errors}
	if res.Errors == nil {
		res.Errors = []EntryError{}
	}
	if len(plan.Entries) == 0 {
		return res, nil
	}

	created, err := s.store.ReplaceCriteria(ctx, assignmentID, plan.Entries)
	if err != nil {
		return ImportResult{}, fmt.Errorf("replace criteria: %w", err)
	}
	res.Created = created
	res.Summary.Count = len(created)

	s.log.Info("criteria imported", "assignment_id", assignmentID, "created", len(created), "rejected", len(res.Errors))
	s.record(ctx, EventCriteriaReplaced, assignmentID, map[string]any{
		"created":  len(created),
		"rejected": res.ErrorNames(),
	})
	return res, nil
}

// Export renders the assignment's criteria as an importable document.
func (s *Service) Export(ctx context.Context, assignmentID int64) ([]byte, error) {
	if _, err := s.store.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	list, err := s.store.ListCriteria(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return Export(list)
}

// Reorder sets position i+1 on order[i]. It fails with ErrCriteriaNotFound,
// changing nothing, unless order lists every criterion of the assignment once.
func (s *Service) Reorder(ctx context.Context, assignmentID int64, order []int64) error {
	if err := s.store.SetPositions(ctx, assignmentID, order); err != nil {
		return err
	}
	s.record(ctx, EventCriteriaReordered, assignmentID, map[string]any{"order": order})
	return nil
}

func (s *Service) Assignment(ctx context.Context, id int64) (Assignment, error) {
	return s.store.GetAssignment(ctx, id)
}

// PutAssignment creates the assignment, or renames it when a.ID exists.
func (s *Service) PutAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	a.ShortIdentifier = strings.TrimSpace(a.ShortIdentifier)
	if a.ShortIdentifier == "" {
		return Assignment{}, fmt.Errorf("%w: short_identifier required", ErrInvalidFormat)
	}
	return s.store.PutAssignment(ctx, a)
}

func (s *Service) List(ctx context.Context, assignmentID int64) ([]Criterion, error) {
	if _, err := s.store.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	return s.store.ListCriteria(ctx, assignmentID)
}

func (s *Service) Get(ctx context.Context, id int64) (Criterion, error) {
	return s.store.GetCriterion(ctx, id)
}

// Create appends a criterion to the assignment. Rubric criteria without
// levels get the default five-level scale.
func (s *Service) Create(ctx context.Context, c Criterion) (Criterion, error) {
	kind, ok := ParseKind(string(c.Kind))
	if !ok {
		return Criterion{}, invalid(c.Name, "unknown type %q", c.Kind)
	}
	c.Kind = kind
	c.Name = strings.TrimSpace(c.Name)
	if err := s.checkName(ctx, c.AssignmentID, 0, c.Name); err != nil {
		return Criterion{}, err
	}
	if c.Kind == KindRubric && len(c.Levels) == 0 {
		c.Levels = DefaultLevels(c.MaxMark)
	}
	if err := s.normalize(&c); err != nil {
		return Criterion{}, err
	}
	return s.store.CreateCriterion(ctx, c)
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	MaxMark     *float64 `json:"max_mark,omitempty"`
	Bonus       *bool    `json:"bonus,omitempty"`
	TAVisible   *bool    `json:"ta_visible,omitempty"`
	PeerVisible *bool    `json:"peer_visible,omitempty"`
}

// Update applies p. A new max mark on a rubric criterion rescales its levels.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Criterion, error) {
	c, err := s.store.GetCriterion(ctx, id)
	if err != nil {
		return Criterion{}, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := s.checkName(ctx, c.AssignmentID, c.ID, name); err != nil {
			return Criterion{}, err
		}
		c.Name = name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Bonus != nil {
		c.Bonus = *p.Bonus
	}
	if p.TAVisible != nil {
		c.TAVisible = *p.TAVisible
	}
	if p.PeerVisible != nil {
		c.PeerVisible = *p.PeerVisible
	}
	if p.MaxMark != nil {
		if c.Kind == KindRubric && c.MaxMark > 0 {
			scale := *p.MaxMark / c.MaxMark
			for i := range c.Levels {
				c.Levels[i].Mark = roundMark(c.Levels[i].Mark*scale, s.policy.MarkPrecision)
			}
		}
		c.MaxMark = *p.MaxMark
	}
	if err := s.normalize(&c); err != nil {
		return Criterion{}, err
	}
	return s.store.UpdateCriterion(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteCriterion(ctx, id)
}

// normalize enforces the same invariants the importer does.
func (s *Service) normalize(c *Criterion) error {
	if c.Name == "" {
		return invalid(c.Name, "missing criterion name")
	}
	if c.Kind == KindRubric {
		for i := range c.Levels {
			c.Levels[i].Name = strings.TrimSpace(c.Levels[i].Name)
		}
		if err := checkLevels(c.Levels, s.policy.MinRubricLevels); err != nil {
			return invalid(c.Name, "levels: %v", err)
		}
		top := 0.0
		for _, l := range c.Levels {
			if l.Mark > top {
				top = l.Mark
			}
		}
		c.MaxMark = top
	}
	c.MaxMark = roundMark(c.MaxMark, s.policy.MarkPrecision)
	if c.MaxMark <= 0 {
		return invalid(c.Name, "max_mark must be positive")
	}
	if !c.TAVisible && !c.PeerVisible {
		return invalid(c.Name, "criterion must be visible to TAs or peers")
	}
	return nil
}

// checkName rejects names already used by another criterion of the
// assignment, compared case-insensitively.
func (s *Service) checkName(ctx context.Context, assignmentID, selfID int64, name string) error {
	list, err := s.store.ListCriteria(ctx, assignmentID)
	if err != nil {
		return err
	}
	for _, other := range list {
		if other.ID != selfID && strings.EqualFold(other.Name, name) {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, typ string, assignmentID int64, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, typ, fmt.Sprint(assignmentID), data); err != nil {
		s.log.Warn("event log append failed", "type", typ, "assignment_id", assignmentID, "err", err)
	}
}

// DefaultLevels is the five-step scale given to a new rubric criterion.
func DefaultLevels(maxMark float64) []Level {
	if maxMark <= 0 {
		maxMark = 4
	}
	names := []struct{ name, desc string }{
		{"Very Poor", "The work does not meet the criterion."},
		{"Weak", "The work meets few aspects of the criterion."},
		{"Passable", "The work meets the criterion in part."},
		{"Good", "The work meets the criterion."},
		{"Excellent", "The work meets the criterion to a high standard."},
	}
	out := make([]Level, len(names))
	for i, n := range names {
		out[i] = Level{Name: n.name, Description: n.desc, Mark: roundMark(maxMark*float64(i)/4, 2)}
	}
	return out
}
