package grading

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-criteria/internal/db"
)

func TestResultStores(t *testing.T) {
	stores := map[string]func(t *testing.T) ResultStore{
		"memory": func(t *testing.T) ResultStore { return NewInMemoryResultStore() },
		"sqlite": func(t *testing.T) ResultStore {
			dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "results.db"))
			require.NoError(t, err)
			t.Cleanup(func() { dbh.Close() })
			_, err = dbh.Exec(`INSERT INTO assignments (id, short_identifier) VALUES (1,'A1'),(2,'A2')`)
			require.NoError(t, err)
			return NewSQLResultStore(dbh)
		},
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rs := mk(t)

			require.NoError(t, rs.PutResult(ctx, Result{AssignmentID: 1, GroupingID: "g1", TotalMark: 4, State: StateComplete}))
			require.NoError(t, rs.PutResult(ctx, Result{AssignmentID: 1, GroupingID: "g2", TotalMark: 2}))
			require.NoError(t, rs.PutResult(ctx, Result{AssignmentID: 1, GroupingID: "g3", TotalMark: 0, State: StateComplete}))
			require.NoError(t, rs.PutResult(ctx, Result{AssignmentID: 2, GroupingID: "g1", TotalMark: 9, State: StateComplete}))
			// remark g1
			require.NoError(t, rs.PutResult(ctx, Result{AssignmentID: 1, GroupingID: "g1", TotalMark: 6, State: StateComplete}))

			totals, err := rs.CompletedTotals(ctx, 1)
			require.NoError(t, err)
			assert.ElementsMatch(t, []float64{6, 0}, totals)

			n, err := rs.GroupingsCount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			totals, err = rs.CompletedTotals(ctx, 3)
			require.NoError(t, err)
			assert.Empty(t, totals)
		})
	}
}
