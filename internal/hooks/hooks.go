// Package hooks is the explicit extension-point registry that connects
// termmeta components: edit-screen sections per taxonomy, term-edited and
// term-deleted listeners, and filters over fetched terms and term lists.
//
// A Registry is an ordinary value owned by whoever wires the application.
// Callbacks run in ascending priority, then registration order.
package hooks

import (
	"context"
	"io"
	"net/url"
	"sort"
	"sync"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// DefaultPriority is the priority used by Add* helpers without one.
const DefaultPriority = 10

// TermEvent describes a saved or deleted term.
type TermEvent struct {
	TermID         int64
	TermTaxonomyID int64
	Taxonomy       string

	// Form is the submitted edit form, nil when nothing was posted.
	Form url.Values
}

// TermEventFunc handles a TermEvent.
type TermEventFunc func(ctx context.Context, ev TermEvent) error

// SectionFunc renders one section of a term edit screen.
type SectionFunc func(w io.Writer, term *types.Term, taxonomy types.Taxonomy) error

// TermFilter transforms a fetched term.
type TermFilter func(ctx context.Context, term *types.Term, taxonomy string) *types.Term

// TermsFilter transforms a fetched list of terms.
type TermsFilter func(ctx context.Context, terms []*types.Term, taxonomy string) []*types.Term

type entry[T any] struct {
	priority int
	seq      int
	fn       T
}

// Registry holds the registered callbacks.
type Registry struct {
	mu       sync.RWMutex
	seq      int
	sections map[string][]entry[SectionFunc]
	edited   []entry[TermEventFunc]
	deleted  []entry[TermEventFunc]
	filters  []entry[TermFilter]
	lists    []entry[TermsFilter]
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sections: make(map[string][]entry[SectionFunc]),
	}
}

// AddEditSection registers fn on the edit screen of taxonomy.
func (r *Registry) AddEditSection(taxonomy string, priority int, fn SectionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[taxonomy] = insert(r.sections[taxonomy], newEntry(r, priority, fn))
}

// OnTermEdited registers fn to run after a term edit is saved.
func (r *Registry) OnTermEdited(priority int, fn TermEventFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edited = insert(r.edited, newEntry(r, priority, fn))
}

// OnTermDeleted registers fn to run after a term is deleted.
func (r *Registry) OnTermDeleted(priority int, fn TermEventFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = insert(r.deleted, newEntry(r, priority, fn))
}

// AddTermFilter registers fn to run over every fetched term.
func (r *Registry) AddTermFilter(priority int, fn TermFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = insert(r.filters, newEntry(r, priority, fn))
}

// AddTermsFilter registers fn to run over every fetched list of terms.
func (r *Registry) AddTermsFilter(priority int, fn TermsFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = insert(r.lists, newEntry(r, priority, fn))
}

// RenderEditSections writes every section registered for taxonomy, in order.
// It stops at the first error.
func (r *Registry) RenderEditSections(w io.Writer, term *types.Term, taxonomy types.Taxonomy) error {
	r.mu.RLock()
	sections := append([]entry[SectionFunc](nil), r.sections[taxonomy.Name]...)
	r.mu.RUnlock()

	for _, s := range sections {
		if err := s.fn(w, term, taxonomy); err != nil {
			return err
		}
	}
	return nil
}

// HasEditSections reports whether any section is registered for taxonomy.
func (r *Registry) HasEditSections(taxonomy string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sections[taxonomy]) > 0
}

// TermEdited runs every term-edited listener. All listeners run; the first
// error is returned.
func (r *Registry) TermEdited(ctx context.Context, ev TermEvent) error {
	r.mu.RLock()
	listeners := append([]entry[TermEventFunc](nil), r.edited...)
	r.mu.RUnlock()
	return fire(ctx, listeners, ev)
}

// TermDeleted runs every term-deleted listener. All listeners run; the
// first error is returned.
func (r *Registry) TermDeleted(ctx context.Context, ev TermEvent) error {
	r.mu.RLock()
	listeners := append([]entry[TermEventFunc](nil), r.deleted...)
	r.mu.RUnlock()
	return fire(ctx, listeners, ev)
}

// FilterTerm passes term through every registered filter.
func (r *Registry) FilterTerm(ctx context.Context, term *types.Term, taxonomy string) *types.Term {
	r.mu.RLock()
	filters := append([]entry[TermFilter](nil), r.filters...)
	r.mu.RUnlock()

	for _, f := range filters {
		term = f.fn(ctx, term, taxonomy)
	}
	return term
}

// FilterTerms passes terms through every registered list filter.
func (r *Registry) FilterTerms(ctx context.Context, terms []*types.Term, taxonomy string) []*types.Term {
	r.mu.RLock()
	filters := append([]entry[TermsFilter](nil), r.lists...)
	r.mu.RUnlock()

	for _, f := range filters {
		terms = f.fn(ctx, terms, taxonomy)
	}
	return terms
}

// newEntry stamps fn with the next registration sequence number.
// The caller must hold r.mu.
func newEntry[T any](r *Registry, priority int, fn T) entry[T] {
	r.seq++
	return entry[T]{priority: priority, seq: r.seq, fn: fn}
}

func insert[T any](list []entry[T], e entry[T]) []entry[T] {
	list = append(list, e)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	return list
}

func fire(ctx context.Context, listeners []entry[TermEventFunc], ev TermEvent) error {
	var first error
	for _, l := range listeners {
		if err := l.fn(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
