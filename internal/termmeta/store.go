// Package termmeta wraps a backend MetaStore with the request-aware rules
// every caller relies on: saves issued from asynchronous requests are
// skipped, and every write is logged with the request ID.
package termmeta

import (
	"context"
	"io"
	"log/slog"

	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

var _ types.MetaStore = (*Store)(nil)

// Store is the MetaStore used by the decorator and the admin form.
type Store struct {
	backend types.MetaStore
	logger  *slog.Logger
}

// NewStore wraps backend. A nil logger discards output.
func NewStore(backend types.MetaStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns every stored entry.
func (s *Store) Load(ctx context.Context) (types.MetaTable, error) {
	return s.backend.Load(ctx)
}

// Save replaces the entry for termID. It does nothing when ctx belongs to
// an asynchronous request, so an inline edit that fires the save event
// twice writes once.
func (s *Store) Save(ctx context.Context, termID int64, fields types.TermMeta) error {
	info := request.FromContext(ctx)
	if info.Async {
		s.logger.Debug("skipping term meta save in async request", "term_id", termID, "request_id", info.ID, "action", info.Action)
		return nil
	}
	if err := s.backend.Save(ctx, termID, fields); err != nil {
		s.logger.Error("saving term meta", "term_id", termID, "request_id", info.ID, "error", err)
		return err
	}
	s.logger.Info("saved term meta", "term_id", termID, "fields", len(fields), "request_id", info.ID)
	return nil
}

// Delete removes the entry for termID.
func (s *Store) Delete(ctx context.Context, termID int64) error {
	info := request.FromContext(ctx)
	if err := s.backend.Delete(ctx, termID); err != nil {
		s.logger.Error("deleting term meta", "term_id", termID, "request_id", info.ID, "error", err)
		return err
	}
	s.logger.Info("deleted term meta", "term_id", termID, "request_id", info.ID)
	return nil
}
