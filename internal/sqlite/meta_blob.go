package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

var _ types.MetaStore = (*blobMetaStore)(nil)

// blobMetaStore keeps the whole MetaTable serialized under one option key.
//
// Save and Delete read the table, change one entry, and write the table
// back without any lock spanning the three steps. Two concurrent saves for
// different terms can therefore lose one of the writes. Use the row layout
// when that matters.
type blobMetaStore struct {
	options types.OptionStore
	key     string
	logger  *slog.Logger
}

// Load returns the stored table. An absent or malformed option yields an
// empty table.
func (s *blobMetaStore) Load(ctx context.Context) (types.MetaTable, error) {
	blob, ok, err := s.options.GetOption(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.MetaTable{}, nil
	}
	table, valid := decodeTable(blob)
	if !valid {
		s.logger.Warn("ignoring malformed term meta option", "option", s.key)
	}
	return table, nil
}

// Save replaces the entry for termID and writes the whole table back.
func (s *blobMetaStore) Save(ctx context.Context, termID int64, fields types.TermMeta) error {
	if termID <= 0 {
		return types.ErrInvalidID
	}
	table, err := s.Load(ctx)
	if err != nil {
		return err
	}
	table[termID] = fields.Clone()
	return s.store(ctx, table)
}

// Delete removes the entry for termID and writes the table back, whether
// or not the entry existed.
func (s *blobMetaStore) Delete(ctx context.Context, termID int64) error {
	if termID <= 0 {
		return types.ErrInvalidID
	}
	table, err := s.Load(ctx)
	if err != nil {
		return err
	}
	delete(table, termID)
	return s.store(ctx, table)
}

func (s *blobMetaStore) store(ctx context.Context, table types.MetaTable) error {
	blob, err := encodeTable(table)
	if err != nil {
		return fmt.Errorf("encoding term meta table: %w", err)
	}
	return s.options.UpdateOption(ctx, s.key, blob)
}
