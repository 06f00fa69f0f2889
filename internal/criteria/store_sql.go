package criteria

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-criteria/internal/db"
)

var _ Store = (*SQLStore)(nil)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const criterionColumns = `id,assignment_id,name,type,max_mark,description,position,bonus,ta_visible,peer_visible`

func (s *SQLStore) PutAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	if a.ID == 0 {
		err := s.db.QueryRowContext(ctx,
			`INSERT INTO assignments (short_identifier, description) VALUES ($1,$2) RETURNING id`,
			a.ShortIdentifier, a.Description).Scan(&a.ID)
		return a, err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id, short_identifier, description)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET short_identifier=EXCLUDED.short_identifier, description=EXCLUDED.description`,
		a.ID, a.ShortIdentifier, a.Description)
	return a, err
}

func (s *SQLStore) GetAssignment(ctx context.Context, id int64) (Assignment, error) {
	var a Assignment
	err := s.db.QueryRowContext(ctx, `SELECT id,short_identifier,description FROM assignments WHERE id=$1`, id).
		Scan(&a.ID, &a.ShortIdentifier, &a.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

func (s *SQLStore) ListCriteria(ctx context.Context, assignmentID int64) ([]Criterion, error) {
	return listCriteria(ctx, s.db, assignmentID)
}

func listCriteria(ctx context.Context, q querier, assignmentID int64) ([]Criterion, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+criterionColumns+` FROM criteria WHERE assignment_id=$1 ORDER BY position, id`, assignmentID)
	if err != nil {
		return nil, err
	}
	out := []Criterion{}
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for i := range out {
		if out[i].Kind != KindRubric {
			continue
		}
		if out[i].Levels, err = loadLevels(ctx, q, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) GetCriterion(ctx context.Context, id int64) (Criterion, error) {
	return getCriterion(ctx, s.db, id)
}

func getCriterion(ctx context.Context, q querier, id int64) (Criterion, error) {
	row := q.QueryRowContext(ctx, `SELECT `+criterionColumns+` FROM criteria WHERE id=$1`, id)
	c, err := scanCriterion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Criterion{}, ErrCriterionNotFound
	}
	if err != nil {
		return Criterion{}, err
	}
	if c.Kind == KindRubric {
		if c.Levels, err = loadLevels(ctx, q, c.ID); err != nil {
			return Criterion{}, err
		}
	}
	return c, nil
}

func (s *SQLStore) ReplaceCriteria(ctx context.Context, assignmentID int64, list []Criterion) ([]Criterion, error) {
	out := make([]Criterion, 0, len(list))
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exist int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE id=$1`, assignmentID).Scan(&exist); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAssignmentNotFound
			}
			return err
		}
		// levels go with their criteria (ON DELETE CASCADE); delete explicitly
		// too in case foreign keys are off.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM criterion_levels WHERE criterion_id IN (SELECT id FROM criteria WHERE assignment_id=$1)`,
			assignmentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM criteria WHERE assignment_id=$1`, assignmentID); err != nil {
			return err
		}
		for _, c := range list {
			c.AssignmentID = assignmentID
			created, err := insertCriterion(ctx, tx, c)
			if err != nil {
				return fmt.Errorf("insert %q: %w", c.Name, err)
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) SetPositions(ctx context.Context, assignmentID int64, order []int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ids, err := criterionIDs(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		pos, err := ReorderPositions(ids, order)
		if err != nil {
			return err
		}
		for _, id := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE criteria SET position=$1 WHERE id=$2 AND assignment_id=$3`, pos[id], id, assignmentID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) CreateCriterion(ctx context.Context, c Criterion) (Criterion, error) {
	var out Criterion
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exist int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE id=$1`, c.AssignmentID).Scan(&exist); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAssignmentNotFound
			}
			return err
		}
		var last sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(position) FROM criteria WHERE assignment_id=$1`, c.AssignmentID).Scan(&last); err != nil {
			return err
		}
		c.Position = int(last.Int64) + 1
		var err error
		out, err = insertCriterion(ctx, tx, c)
		return err
	})
	return out, err
}

func (s *SQLStore) UpdateCriterion(ctx context.Context, c Criterion) (Criterion, error) {
	var out Criterion
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE criteria
			SET name=$1, max_mark=$2, description=$3, bonus=$4, ta_visible=$5, peer_visible=$6
			WHERE id=$7`,
			c.Name, c.MaxMark, c.Description, b2i(c.Bonus), b2i(c.TAVisible), b2i(c.PeerVisible), c.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrCriterionNotFound
		}
		if c.Kind == KindRubric {
			if _, err := tx.ExecContext(ctx, `DELETE FROM criterion_levels WHERE criterion_id=$1`, c.ID); err != nil {
				return err
			}
			if err := insertLevels(ctx, tx, c.ID, c.Levels); err != nil {
				return err
			}
		}
		out, err = getCriterion(ctx, tx, c.ID)
		return err
	})
	return out, err
}

func (s *SQLStore) DeleteCriterion(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var assignmentID int64
		if err := tx.QueryRowContext(ctx, `SELECT assignment_id FROM criteria WHERE id=$1`, id).Scan(&assignmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCriterionNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM criterion_levels WHERE criterion_id=$1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM criteria WHERE id=$1`, id); err != nil {
			return err
		}
		ids, err := criterionIDs(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		for i, rest := range ids {
			if _, err := tx.ExecContext(ctx, `UPDATE criteria SET position=$1 WHERE id=$2`, i+1, rest); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCriterion(r rowScanner) (Criterion, error) {
	var c Criterion
	var kind string
	var bonus, ta, peer int
	if err := r.Scan(&c.ID, &c.AssignmentID, &c.Name, &kind, &c.MaxMark, &c.Description, &c.Position, &bonus, &ta, &peer); err != nil {
		return Criterion{}, err
	}
	c.Kind = Kind(kind)
	c.Bonus, c.TAVisible, c.PeerVisible = bonus != 0, ta != 0, peer != 0
	return c, nil
}

func insertCriterion(ctx context.Context, tx *sql.Tx, c Criterion) (Criterion, error) {
	err := tx.QueryRowContext(ctx, `INSERT INTO criteria
		(assignment_id,name,type,max_mark,description,position,bonus,ta_visible,peer_visible)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		c.AssignmentID, c.Name, string(c.Kind), c.MaxMark, c.Description, c.Position,
		b2i(c.Bonus), b2i(c.TAVisible), b2i(c.PeerVisible)).Scan(&c.ID)
	if err != nil {
		return Criterion{}, err
	}
	if err := insertLevels(ctx, tx, c.ID, c.Levels); err != nil {
		return Criterion{}, err
	}
	return c, nil
}

func insertLevels(ctx context.Context, tx *sql.Tx, criterionID int64, levels []Level) error {
	for i, l := range levels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO criterion_levels (criterion_id,position,name,description,mark) VALUES ($1,$2,$3,$4,$5)`,
			criterionID, i+1, l.Name, l.Description, l.Mark); err != nil {
			return fmt.Errorf("insert level %q: %w", l.Name, err)
		}
	}
	return nil
}

func loadLevels(ctx context.Context, q querier, criterionID int64) ([]Level, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name,description,mark FROM criterion_levels WHERE criterion_id=$1 ORDER BY position, id`, criterionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Level
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.Name, &l.Description, &l.Mark); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func criterionIDs(ctx context.Context, q querier, assignmentID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM criteria WHERE assignment_id=$1 ORDER BY position, id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
