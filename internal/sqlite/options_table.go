package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

var _ types.OptionStore = (*optionsTable)(nil)

// optionsTable is the generic key/value settings table.
type optionsTable struct {
	backend *Backend
}

// GetOption returns the value stored under key and whether it exists.
func (ot *optionsTable) GetOption(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, types.ErrInvalidID
	}
	db, release, err := ot.backend.conn()
	if err != nil {
		return nil, false, err
	}
	defer release()

	var value []byte
	err = db.QueryRowContext(ctx,
		"SELECT option_value FROM options WHERE option_name = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting option %s: %w", key, err)
	}
	return value, true, nil
}

// UpdateOption creates or overwrites the value stored under key.
func (ot *optionsTable) UpdateOption(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return types.ErrInvalidID
	}
	if value == nil {
		value = []byte{}
	}
	return ot.backend.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO options (option_name, option_value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(option_name) DO UPDATE SET option_value = excluded.option_value, updated_at = excluded.updated_at`,
			key, value, now(),
		)
		if err != nil {
			return fmt.Errorf("updating option %s: %w", key, err)
		}
		return nil
	})
}

// DeleteOption removes key. Deleting an absent key succeeds.
func (ot *optionsTable) DeleteOption(ctx context.Context, key string) error {
	if key == "" {
		return types.ErrInvalidID
	}
	return ot.backend.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM options WHERE option_name = ?", key); err != nil {
			return fmt.Errorf("deleting option %s: %w", key, err)
		}
		return nil
	})
}
