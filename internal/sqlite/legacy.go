package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// ErrMigrateBlobStorage is returned when MigrateLegacy runs on a backend
// attached with blob storage. Migrated rows would be invisible to the
// active store and the source option would be removed.
var ErrMigrateBlobStorage = errors.New("legacy migration requires row storage")

// MigrateLegacy moves a serialized MetaTable stored under optionKey into
// term_meta rows, one per term, and deletes the option. A missing option
// migrates nothing. A malformed option is left in place and reported as
// ErrInvalidData. Returns the number of terms migrated.
func (b *Backend) MigrateLegacy(ctx context.Context, optionKey string) (int, error) {
	if b.Config().GetStorage() == types.StorageBlob {
		return 0, ErrMigrateBlobStorage
	}

	options, err := b.Options()
	if err != nil {
		return 0, err
	}
	blob, ok, err := options.GetOption(ctx, optionKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	table, valid := decodeTable(blob)
	if !valid {
		return 0, fmt.Errorf("option %s: %w", optionKey, types.ErrInvalidData)
	}

	for id, meta := range table {
		if err := b.rows.Save(ctx, id, meta); err != nil {
			return 0, fmt.Errorf("migrating term %d: %w", id, err)
		}
	}
	if err := options.DeleteOption(ctx, optionKey); err != nil {
		return len(table), fmt.Errorf("removing option %s: %w", optionKey, err)
	}

	b.logger.Info("migrated legacy term meta", "option", optionKey, "terms", len(table))
	return len(table), nil
}
