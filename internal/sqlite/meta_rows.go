package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

var _ types.MetaStore = (*rowMetaStore)(nil)

// rowMetaStore keeps one term_meta row per term, so saves for different
// terms never overwrite each other.
type rowMetaStore struct {
	backend *Backend
}

// Load returns every stored entry ordered by term ID. Rows whose fields
// column is not a JSON object are skipped and logged.
func (s *rowMetaStore) Load(ctx context.Context) (types.MetaTable, error) {
	db, release, err := s.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, "SELECT term_id, fields FROM term_meta ORDER BY term_id")
	if err != nil {
		return nil, fmt.Errorf("loading term meta: %w", err)
	}
	defer rows.Close()

	table := types.MetaTable{}
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning term meta: %w", err)
		}
		meta, ok := decodeFields(json.RawMessage(raw))
		if !ok {
			s.backend.logger.Warn("skipping malformed term meta", "term_id", id)
			continue
		}
		table[id] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term meta: %w", err)
	}
	return table, nil
}

// Save replaces the row for termID with fields.
func (s *rowMetaStore) Save(ctx context.Context, termID int64, fields types.TermMeta) error {
	if termID <= 0 {
		return types.ErrInvalidID
	}
	data, err := json.Marshal(fields.Clone())
	if err != nil {
		return fmt.Errorf("encoding term meta %d: %w", termID, err)
	}

	return s.backend.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO term_meta (term_id, fields, revision, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(term_id) DO UPDATE SET fields = excluded.fields, revision = excluded.revision, updated_at = excluded.updated_at`,
			termID, string(data), generateUUID(), now(),
		)
		if err != nil {
			return fmt.Errorf("saving term meta %d: %w", termID, err)
		}
		return nil
	})
}

// Delete removes the row for termID without checking that it exists.
func (s *rowMetaStore) Delete(ctx context.Context, termID int64) error {
	if termID <= 0 {
		return types.ErrInvalidID
	}
	return s.backend.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM term_meta WHERE term_id = ?", termID); err != nil {
			return fmt.Errorf("deleting term meta %d: %w", termID, err)
		}
		return nil
	})
}
