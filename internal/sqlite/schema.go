package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. Every statement is idempotent so Attach can run it against
// an existing database.
const (
	createOptions = `CREATE TABLE IF NOT EXISTS options (
    option_name TEXT PRIMARY KEY,
    option_value BLOB NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTerms = `CREATE TABLE IF NOT EXISTS terms (
    term_id INTEGER PRIMARY KEY AUTOINCREMENT,
    term_taxonomy_id INTEGER NOT NULL DEFAULT 0,
    taxonomy TEXT NOT NULL,
    name TEXT NOT NULL,
    slug TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (taxonomy, slug)
);`

	createTermMeta = `CREATE TABLE IF NOT EXISTS term_meta (
    term_id INTEGER PRIMARY KEY,
    fields TEXT NOT NULL,
    revision TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

const (
	idxTermsTaxonomy = `CREATE INDEX IF NOT EXISTS idx_terms_taxonomy ON terms(taxonomy, name);`
)

// schemaDDL lists all CREATE statements in dependency order.
var schemaDDL = []string{
	createOptions,
	createTerms,
	createTermMeta,
	idxTermsTaxonomy,
}

func applySchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
