package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/healthviz/internal/db"
)

// Store persists observations.
type Store struct {
	db *db.DB
}

// NewStore creates a store on an open database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Import is the record of one CSV load.
type Import struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Skipped   int       `json:"skipped"`
	CreatedAt time.Time `json:"created_at"`
}

// Import stores a read result in one transaction. Rows with an existing ID
// are replaced. progress, if non-nil, is called after each row.
func (s *Store) Import(ctx context.Context, source string, res ReadResult, progress func(done int)) (*Import, error) {
	imp := &Import{
		ID:        uuid.New().String(),
		Source:    source,
		Rows:      len(res.Observations),
		Skipped:   res.Skipped,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, row_count, skipped, created_at) VALUES (?, ?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.Rows, imp.Skipped, imp.CreatedAt.Format(time.DateTime),
	); err != nil {
		return nil, fmt.Errorf("inserting import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO observations (id, import_id, country, technology, category, year, value, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range res.Observations {
		fields, err := json.Marshal(o.Fields)
		if err != nil {
			return nil, fmt.Errorf("encoding fields of %s: %w", o.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, o.ID, imp.ID, o.Country, o.Technology, o.Category, o.Year, o.Value, string(fields)); err != nil {
			return nil, fmt.Errorf("inserting %s: %w", o.ID, err)
		}
		if progress != nil {
			progress(i + 1)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return imp, nil
}

// Query returns the observations matching f in insertion order.
func (s *Store) Query(ctx context.Context, f Filter) ([]Observation, error) {
	where, args := f.sql()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, country, technology, category, year, value, fields
		 FROM observations`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		var fields string
		if err := rows.Scan(&o.ID, &o.Country, &o.Technology, &o.Category, &o.Year, &o.Value, &fields); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		if fields != "" {
			if err := json.Unmarshal([]byte(fields), &o.Fields); err != nil {
				return nil, fmt.Errorf("decoding fields of %s: %w", o.ID, err)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// YearRange returns the smallest and largest stored year. ok is false when
// the store is empty.
func (s *Store) YearRange(ctx context.Context) (min, max int, ok bool, err error) {
	var lo, hi sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(year), MAX(year) FROM observations`).Scan(&lo, &hi); err != nil {
		return 0, 0, false, fmt.Errorf("querying year range: %w", err)
	}
	if !lo.Valid {
		return 0, 0, false, nil
	}
	return int(lo.Int64), int(hi.Int64), true, nil
}

// Technologies returns the distinct technologies in first-stored order.
func (s *Store) Technologies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT technology FROM observations WHERE technology != ''
		 GROUP BY technology ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, fmt.Errorf("querying technologies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning technology: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Imports lists past imports, newest first. A positive limit caps the
// result.
func (s *Store) Imports(ctx context.Context, limit int) ([]Import, error) {
	query := `SELECT id, source, row_count, skipped, created_at FROM imports ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var imp Import
		var ts string
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.Rows, &imp.Skipped, &ts); err != nil {
			return nil, fmt.Errorf("scanning import: %w", err)
		}
		if t, err := time.Parse(time.DateTime, ts); err == nil {
			imp.CreatedAt = t
		} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
			imp.CreatedAt = t
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

// Count returns the number of stored observations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return n, nil
}

func (f Filter) sql() (string, []any) {
	var conds []string
	var args []any
	if f.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, f.Year)
	}
	if f.Technology != "" && f.Technology != AllTechnologies {
		conds = append(conds, "technology = ?")
		args = append(args, f.Technology)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
