// Package decorator merges stored term metadata onto fetched terms.
//
// For every field the decorator starts from the configured defaults,
// overlays the stored entry, strips one level of slashes, decodes numeric
// entities, and runs that field's filters. Global filters then run over
// the whole map. The result becomes Term.Meta.
package decorator

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/termmeta/internal/formatting"
	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// Loader is the part of a MetaStore the decorator reads from.
type Loader interface {
	Load(ctx context.Context) (types.MetaTable, error)
}

// FieldFilter transforms the value of one field.
type FieldFilter func(value string, term *types.Term, taxonomy string) string

// MetaFilter transforms the merged map of one term.
type MetaFilter func(meta types.TermMeta, term *types.Term, taxonomy string) types.TermMeta

// Config holds the defaults and filters a Decorator applies. Build it with
// DefaultConfig and the With* methods; each returns a new Config and
// leaves the receiver untouched.
type Config struct {
	Defaults     types.TermMeta
	FieldFilters map[string][]FieldFilter
	Filters      []MetaFilter
}

// DefaultConfig returns the built-in defaults with no filters.
func DefaultConfig() Config {
	return Config{Defaults: types.DefaultTermMeta()}
}

// WithDefault returns a copy of c with field defaulting to value.
func (c Config) WithDefault(field, value string) Config {
	out := c.clone()
	out.Defaults[field] = value
	return out
}

// WithFieldFilter returns a copy of c with f appended to field's filters.
func (c Config) WithFieldFilter(field string, f FieldFilter) Config {
	out := c.clone()
	out.FieldFilters[field] = append(out.FieldFilters[field], f)
	return out
}

// WithFilter returns a copy of c with f appended to the global filters.
func (c Config) WithFilter(f MetaFilter) Config {
	out := c.clone()
	out.Filters = append(out.Filters, f)
	return out
}

func (c Config) clone() Config {
	out := Config{
		Defaults:     c.Defaults.Clone(),
		FieldFilters: make(map[string][]FieldFilter, len(c.FieldFilters)),
		Filters:      append([]MetaFilter(nil), c.Filters...),
	}
	for field, fs := range c.FieldFilters {
		out.FieldFilters[field] = append([]FieldFilter(nil), fs...)
	}
	return out
}

// Decorator attaches merged metadata to terms.
type Decorator struct {
	store  Loader
	config Config
	logger *slog.Logger
}

// New returns a Decorator reading from store. A nil logger discards output.
func New(store Loader, config Config, logger *slog.Logger) *Decorator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Decorator{store: store, config: config.clone(), logger: logger}
}

// Decorate sets term.Meta and returns term. A nil term is returned as is,
// and so is any term fetched while an asynchronous add-term request runs.
// A failing store is logged and the term is decorated from defaults.
func (d *Decorator) Decorate(ctx context.Context, term *types.Term, taxonomy string) *types.Term {
	if term == nil || request.DoingAction(ctx, request.ActionAddTerm) {
		return term
	}
	table := d.load(ctx)
	d.apply(term, taxonomy, table[term.ID])
	return term
}

// DecorateMany decorates every term in order, loading the stored table
// once. The input slice is returned.
func (d *Decorator) DecorateMany(ctx context.Context, terms []*types.Term, taxonomy string) []*types.Term {
	if len(terms) == 0 || request.DoingAction(ctx, request.ActionAddTerm) {
		return terms
	}
	table := d.load(ctx)
	for _, term := range terms {
		if term == nil {
			continue
		}
		d.apply(term, taxonomy, table[term.ID])
	}
	return terms
}

func (d *Decorator) load(ctx context.Context) types.MetaTable {
	table, err := d.store.Load(ctx)
	if err != nil {
		d.logger.Warn("loading term meta, using defaults", "error", err, "request_id", request.FromContext(ctx).ID)
		return nil
	}
	return table
}

func (d *Decorator) apply(term *types.Term, taxonomy string, stored types.TermMeta) {
	meta := d.config.Defaults.Clone()
	for field, value := range stored {
		meta[field] = value
	}

	fields := make([]string, 0, len(meta))
	for field := range meta {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := formatting.DecodeEntities(formatting.StripSlashes(meta[field]))
		for _, f := range d.config.FieldFilters[field] {
			value = f(value, term, taxonomy)
		}
		meta[field] = value
	}

	for _, f := range d.config.Filters {
		meta = f(meta, term, taxonomy)
	}
	if meta == nil {
		meta = types.TermMeta{}
	}
	term.Meta = meta
}
