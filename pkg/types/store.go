package types

import (
	"context"
	"errors"
)

// Backend is the storage-agnostic entry point. Callers attach with a
// Config, obtain stores, and detach when done.
type Backend interface {
	// Attach connects to the backend described by config. Creates the
	// DataDir if it does not exist. Returns ErrAlreadyAttached when called
	// twice.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// MetaStore returns the term metadata store selected by Config.Storage.
	MetaStore() (MetaStore, error)

	// Terms returns the term store.
	Terms() (TermStore, error)

	// Options returns the generic option store.
	Options() (OptionStore, error)
}

// MetaStore reads and writes TermMeta entries.
type MetaStore interface {
	// Load returns every stored entry. Malformed entries are skipped.
	Load(ctx context.Context) (MetaTable, error)

	// Save replaces the entry for termID with fields. Fields that were
	// stored before and are missing from fields are dropped.
	Save(ctx context.Context, termID int64, fields TermMeta) error

	// Delete removes the entry for termID. Deleting an absent entry
	// succeeds.
	Delete(ctx context.Context, termID int64) error
}

// TermStore provides CRUD for terms.
type TermStore interface {
	Create(ctx context.Context, term *Term) (int64, error)
	Get(ctx context.Context, id int64) (*Term, error)
	Update(ctx context.Context, term *Term) error
	Delete(ctx context.Context, id int64) error

	// List returns the terms of a taxonomy ordered by name. An empty
	// taxonomy lists every term.
	List(ctx context.Context, taxonomy string) ([]*Term, error)
}

// OptionStore is a generic persistent key/value settings table.
type OptionStore interface {
	// GetOption returns the stored value and whether the key exists.
	GetOption(ctx context.Context, key string) ([]byte, bool, error)
	UpdateOption(ctx context.Context, key string, value []byte) error
	DeleteOption(ctx context.Context, key string) error
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Store operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("invalid name")
	ErrInvalidData = errors.New("invalid entity data")

	// ErrDuplicate is returned when a term slug is already taken in its
	// taxonomy.
	ErrDuplicate = errors.New("duplicate entity")
)
