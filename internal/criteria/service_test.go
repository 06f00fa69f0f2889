package criteria

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-criteria/internal/db"
)

type recordedEvent struct {
	typ, key string
	data     any
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(_ context.Context, typ, key string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{typ, key, data})
	return nil
}

func stores() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "criteria.db"))
			require.NoError(t, err)
			t.Cleanup(func() { dbh.Close() })
			return NewSQLStore(dbh)
		},
	}
}

// eachStore runs fn against a fresh service over every Store implementation,
// with assignments 1 and 2 already present.
func eachStore(t *testing.T, fn func(t *testing.T, svc *Service, rec *fakeRecorder)) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			store := mk(t)
			ctx := context.Background()
			_, err := store.PutAssignment(ctx, Assignment{ID: 1, ShortIdentifier: "A1"})
			require.NoError(t, err)
			_, err = store.PutAssignment(ctx, Assignment{ID: 2, ShortIdentifier: "A2"})
			require.NoError(t, err)
			rec := &fakeRecorder{}
			fn(t, NewService(store, WithEvents(rec)), rec)
		})
	}
}

func positions(t *testing.T, svc *Service, assignmentID int64) map[string]int {
	t.Helper()
	list, err := svc.List(context.Background(), assignmentID)
	require.NoError(t, err)
	out := map[string]int{}
	for _, c := range list {
		out[c.Name] = c.Position
	}
	return out
}

func TestImportMixedDocument(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, rec *fakeRecorder) {
		ctx := context.Background()
		res, err := svc.Import(ctx, 1, []byte(mixedDoc))
		require.NoError(t, err)

		assert.Equal(t, 6, res.Summary.Count)
		require.Len(t, res.Created, 6)
		for i, c := range res.Created {
			assert.NotZero(t, c.ID)
			assert.Equal(t, int64(1), c.AssignmentID)
			assert.Equal(t, i+1, c.Position)
		}
		assert.Equal(t, []string{"cr4", "cr7"}, res.ErrorNames())
		assert.Equal(t, "invalid format: cr4, cr7", res.ErrorMessage())

		list, err := svc.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 6)
		assert.Equal(t, "cr3", list[2].Name)
		require.Len(t, list[2].Levels, 2)
		assert.Equal(t, 4.0, list[2].MaxMark)

		require.Len(t, rec.events, 1)
		assert.Equal(t, EventCriteriaReplaced, rec.events[0].typ)
		assert.Equal(t, "1", rec.events[0].key)
	})
}

func TestImportReplacesExistingCriteria(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, _ *fakeRecorder) {
		ctx := context.Background()
		_, err := svc.Import(ctx, 1, []byte(mixedDoc))
		require.NoError(t, err)
		_, err = svc.Import(ctx, 2, []byte("other:\n  type: checkbox\n  max_mark: 1\n"))
		require.NoError(t, err)

		res, err := svc.Import(ctx, 1, []byte("only:\n  type: flexible\n  max_mark: 7\n"))
		require.NoError(t, err)
		require.Len(t, res.Created, 1)

		assert.Equal(t, map[string]int{"only": 1}, positions(t, svc, 1))
		assert.Equal(t, map[string]int{"other": 1}, positions(t, svc, 2), "other assignments untouched")
	})
}

func TestImportWithNoValidEntriesChangesNothing(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, rec *fakeRecorder) {
		ctx := context.Background()
		_, err := svc.Import(ctx, 1, []byte(mixedDoc))
		require.NoError(t, err)
		before, err := svc.List(ctx, 1)
		require.NoError(t, err)

		res, err := svc.Import(ctx, 1, []byte("bad1:\n  type: essay\nbad2:\n  type: checkbox\n"))
		require.NoError(t, err)
		assert.Empty(t, res.Created)
		assert.Equal(t, 0, res.Summary.Count)
		assert.Equal(t, []string{"bad1", "bad2"}, res.ErrorNames())

		after, err := svc.List(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Len(t, rec.events, 1, "only the first import is recorded")
	})
}

func TestImportBlankDocumentAndUnknownAssignment(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, _ *fakeRecorder) {
		ctx := context.Background()
		_, err := svc.Import(ctx, 1, []byte("  \n"))
		assert.ErrorIs(t, err, ErrBlankDocument)

		_, err = svc.Import(ctx, 404, []byte(mixedDoc))
		assert.ErrorIs(t, err, ErrAssignmentNotFound)
	})
}

func TestReorder(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, rec *fakeRecorder) {
		ctx := context.Background()
		a, err := svc.Import(ctx, 1, []byte("x:\n  type: checkbox\n  max_mark: 1\ny:\n  type: checkbox\n  max_mark: 1\nz:\n  type: checkbox\n  max_mark: 1\n"))
		require.NoError(t, err)
		b, err := svc.Import(ctx, 2, []byte("w:\n  type: checkbox\n  max_mark: 1\n"))
		require.NoError(t, err)
		x, y, z := a.Created[0].ID, a.Created[1].ID, a.Created[2].ID

		require.NoError(t, svc.Reorder(ctx, 1, []int64{z, x, y}))
		assert.Equal(t, map[string]int{"z": 1, "x": 2, "y": 3}, positions(t, svc, 1))

		err = svc.Reorder(ctx, 1, []int64{y, b.Created[0].ID, x})
		assert.ErrorIs(t, err, ErrCriteriaNotFound)
		assert.Equal(t, map[string]int{"z": 1, "x": 2, "y": 3}, positions(t, svc, 1), "failed reorder changes nothing")

		err = svc.Reorder(ctx, 1, []int64{y, x})
		assert.ErrorIs(t, err, ErrCriteriaNotFound)

		var reorders int
		for _, e := range rec.events {
			if e.typ == EventCriteriaReordered {
				reorders++
			}
		}
		assert.Equal(t, 1, reorders)
	})
}

func TestExportAfterImportRoundTrips(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, _ *fakeRecorder) {
		ctx := context.Background()
		first, err := svc.Import(ctx, 1, []byte(mixedDoc))
		require.NoError(t, err)

		doc, err := svc.Export(ctx, 1)
		require.NoError(t, err)
		second, err := svc.Import(ctx, 2, doc)
		require.NoError(t, err)
		assert.Empty(t, second.Errors)

		strip := func(list []Criterion) []Criterion {
			out := make([]Criterion, len(list))
			for i, c := range list {
				c.ID, c.AssignmentID = 0, 0
				out[i] = c
			}
			return out
		}
		assert.Equal(t, strip(first.Created), strip(second.Created))
	})
}

func TestCriterionCRUD(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Service, _ *fakeRecorder) {
		ctx := context.Background()
		_, err := svc.Import(ctx, 1, []byte("a:\n  type: checkbox\n  max_mark: 1\nb:\n  type: flexible\n  max_mark: 2\n"))
		require.NoError(t, err)

		c, err := svc.Create(ctx, Criterion{AssignmentID: 1, Name: " Rubric ", Kind: "Rubric", MaxMark: 8, TAVisible: true})
		require.NoError(t, err)
		assert.Equal(t, "Rubric", c.Name)
		assert.Equal(t, KindRubric, c.Kind)
		assert.Equal(t, 3, c.Position)
		assert.Equal(t, 8.0, c.MaxMark)
		require.Len(t, c.Levels, 5)
		assert.Equal(t, 4.0, c.Levels[2].Mark)

		_, err = svc.Create(ctx, Criterion{AssignmentID: 1, Name: "A", Kind: KindCheckbox, MaxMark: 1, TAVisible: true})
		assert.ErrorIs(t, err, ErrDuplicateName)
		_, err = svc.Create(ctx, Criterion{AssignmentID: 1, Name: "c", Kind: "essay", MaxMark: 1, TAVisible: true})
		assert.ErrorIs(t, err, ErrInvalidFormat)
		_, err = svc.Create(ctx, Criterion{AssignmentID: 1, Name: "c", Kind: KindCheckbox, MaxMark: 1})
		assert.ErrorIs(t, err, ErrInvalidFormat, "invisible")
		_, err = svc.Create(ctx, Criterion{AssignmentID: 404, Name: "c", Kind: KindCheckbox, MaxMark: 1, TAVisible: true})
		assert.ErrorIs(t, err, ErrAssignmentNotFound)

		badScales := map[string][]Level{
			"duplicate level": {{Name: "a", Mark: 1}, {Name: "a", Mark: 2}},
			"blank level":     {{Name: "  ", Mark: 3}},
			"negative level":  {{Name: "a", Mark: -1}, {Name: "b", Mark: 2}},
		}
		for name, levels := range badScales {
			_, err = svc.Create(ctx, Criterion{AssignmentID: 1, Name: "c", Kind: KindRubric, Levels: levels, TAVisible: true})
			assert.ErrorIs(t, err, ErrInvalidFormat, name)
		}

		newMax, desc, peer := 4.0, "halved", true
		u, err := svc.Update(ctx, c.ID, Patch{MaxMark: &newMax, Description: &desc, PeerVisible: &peer})
		require.NoError(t, err)
		assert.Equal(t, 4.0, u.MaxMark)
		assert.Equal(t, 2.0, u.Levels[2].Mark)
		assert.Equal(t, "halved", u.Description)
		assert.True(t, u.PeerVisible)
		assert.Equal(t, 3, u.Position)

		dup := "b"
		_, err = svc.Update(ctx, c.ID, Patch{Name: &dup})
		assert.ErrorIs(t, err, ErrDuplicateName)
		same := "rubric"
		_, err = svc.Update(ctx, c.ID, Patch{Name: &same})
		assert.NoError(t, err, "renaming to a case variant of itself is fine")

		list, err := svc.List(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, list[0].ID))
		assert.Equal(t, map[string]int{"b": 1, "rubric": 2}, positions(t, svc, 1))

		assert.ErrorIs(t, svc.Delete(ctx, list[0].ID), ErrCriterionNotFound)
		_, err = svc.Get(ctx, list[0].ID)
		assert.ErrorIs(t, err, ErrCriterionNotFound)
	})
}

func TestCreateAppliesMinimumRubricLevels(t *testing.T) {
	p := DefaultPolicy()
	p.MinRubricLevels = 3
	svc := NewService(NewInMemoryStore(), WithPolicy(p))
	ctx := context.Background()
	a, err := svc.PutAssignment(ctx, Assignment{ShortIdentifier: "A1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Criterion{AssignmentID: a.ID, Name: "r", Kind: KindRubric, TAVisible: true,
		Levels: []Level{{Name: "low", Mark: 0}, {Name: "high", Mark: 2}}})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	c, err := svc.Create(ctx, Criterion{AssignmentID: a.ID, Name: "r", Kind: KindRubric, MaxMark: 4, TAVisible: true})
	require.NoError(t, err, "default scale has five levels")
	assert.Len(t, c.Levels, 5)
}

func TestPutAssignment(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	_, err := svc.PutAssignment(ctx, Assignment{ShortIdentifier: "  "})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	a, err := svc.PutAssignment(ctx, Assignment{ShortIdentifier: "A1"})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	got, err := svc.Assignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.ShortIdentifier)
}
