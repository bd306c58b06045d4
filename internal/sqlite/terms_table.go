package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

var _ types.TermStore = (*termsTable)(nil)

type termsTable struct {
	backend *Backend
}

const termColumns = "term_id, term_taxonomy_id, taxonomy, name, slug, description"

// Create inserts a new term and returns its ID. The slug is derived from
// the name when empty. TermTaxonomyID is set to the new term ID.
func (tt *termsTable) Create(ctx context.Context, term *types.Term) (int64, error) {
	if term == nil {
		return 0, types.ErrInvalidData
	}
	if strings.TrimSpace(term.Name) == "" {
		return 0, types.ErrInvalidName
	}
	if term.Taxonomy == "" {
		return 0, types.ErrInvalidData
	}
	if term.Slug == "" {
		term.Slug = Slugify(term.Name)
	}
	if strings.TrimSpace(term.Slug) == "" {
		return 0, fmt.Errorf("no slug for %q: %w", term.Name, types.ErrInvalidName)
	}

	err := tt.backend.inTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO terms (taxonomy, name, slug, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			term.Taxonomy, term.Name, term.Slug, term.Description, ts, ts,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q in %s: %w", term.Slug, term.Taxonomy, types.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("inserting term: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading term id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE terms SET term_taxonomy_id = ? WHERE term_id = ?", id, id); err != nil {
			return fmt.Errorf("setting term taxonomy id: %w", err)
		}
		term.ID = id
		term.TermTaxonomyID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return term.ID, nil
}

// Get retrieves a term by ID. The returned term carries no Meta; callers
// decorate it.
func (tt *termsTable) Get(ctx context.Context, id int64) (*types.Term, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	row := db.QueryRowContext(ctx, "SELECT "+termColumns+" FROM terms WHERE term_id = ?", id)
	term, err := scanTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting term %d: %w", id, err)
	}
	return term, nil
}

// Update overwrites name, slug, and description of an existing term.
func (tt *termsTable) Update(ctx context.Context, term *types.Term) error {
	if term == nil {
		return types.ErrInvalidData
	}
	if term.ID <= 0 {
		return types.ErrInvalidID
	}
	if strings.TrimSpace(term.Name) == "" {
		return types.ErrInvalidName
	}
	if term.Slug == "" {
		term.Slug = Slugify(term.Name)
	}
	if strings.TrimSpace(term.Slug) == "" {
		return fmt.Errorf("no slug for %q: %w", term.Name, types.ErrInvalidName)
	}

	return tt.backend.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE terms SET name = ?, slug = ?, description = ?, updated_at = ? WHERE term_id = ?",
			term.Name, term.Slug, term.Description, now(), term.ID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", term.Slug, types.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("updating term %d: %w", term.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating term %d: %w", term.ID, err)
		}
		if n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
}

// Delete removes a term. Returns ErrNotFound if it does not exist.
func (tt *termsTable) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return tt.backend.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM terms WHERE term_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting term %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting term %d: %w", id, err)
		}
		if n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
}

// List returns the terms of taxonomy ordered by name, then ID.
// Returns an empty slice, not nil, when nothing matches.
func (tt *termsTable) List(ctx context.Context, taxonomy string) ([]*types.Term, error) {
	db, release, err := tt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	query := "SELECT " + termColumns + " FROM terms"
	var args []any
	if taxonomy != "" {
		query += " WHERE taxonomy = ?"
		args = append(args, taxonomy)
	}
	query += " ORDER BY name ASC, term_id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}
	defer rows.Close()

	terms := []*types.Term{}
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}
	return terms, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTerm(s scanner) (*types.Term, error) {
	var t types.Term
	if err := s.Scan(&t.ID, &t.TermTaxonomyID, &t.Taxonomy, &t.Name, &t.Slug, &t.Description); err != nil {
		return nil, err
	}
	return &t, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure,
// which on the terms table means the slug is taken in the taxonomy.
func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Slugify lowercases name and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
