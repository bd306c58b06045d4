// Package taxonomy is the term API the rest of termmeta talks to. It
// stores terms through a TermStore, runs fetched terms through the
// registered filters, and fires the term-edited and term-deleted events.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/mesh-intelligence/termmeta/internal/hooks"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// ErrUnknownTaxonomy is returned for taxonomies that were not registered.
var ErrUnknownTaxonomy = errors.New("unknown taxonomy")

// Service manages the terms of a fixed set of taxonomies.
type Service struct {
	terms      types.TermStore
	hooks      *hooks.Registry
	taxonomies map[string]types.Taxonomy
	order      []string
	logger     *slog.Logger
}

// New returns a Service for taxonomies. A nil logger discards output.
func New(terms types.TermStore, reg *hooks.Registry, taxonomies []types.Taxonomy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		terms:      terms,
		hooks:      reg,
		taxonomies: make(map[string]types.Taxonomy, len(taxonomies)),
		logger:     logger,
	}
	for _, tax := range taxonomies {
		if _, dup := s.taxonomies[tax.Name]; !dup {
			s.order = append(s.order, tax.Name)
		}
		s.taxonomies[tax.Name] = tax
	}
	return s
}

// Taxonomies returns the registered taxonomies in registration order.
func (s *Service) Taxonomies() []types.Taxonomy {
	out := make([]types.Taxonomy, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.taxonomies[name])
	}
	return out
}

// Taxonomy returns the taxonomy called name.
func (s *Service) Taxonomy(name string) (types.Taxonomy, error) {
	tax, ok := s.taxonomies[name]
	if !ok {
		return types.Taxonomy{}, fmt.Errorf("%w: %q", ErrUnknownTaxonomy, name)
	}
	return tax, nil
}

// Create stores a new term in taxonomy and returns it as Get would.
func (s *Service) Create(ctx context.Context, taxonomy, name, slug, description string) (*types.Term, error) {
	if _, err := s.Taxonomy(taxonomy); err != nil {
		return nil, err
	}
	term := &types.Term{Taxonomy: taxonomy, Name: name, Slug: slug, Description: description}
	id, err := s.terms.Create(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("creating term: %w", err)
	}
	s.logger.Info("created term", "term_id", id, "taxonomy", taxonomy, "slug", term.Slug)
	return s.Get(ctx, taxonomy, id)
}

// Get fetches a term of taxonomy and runs it through the term filters.
// A term that belongs to another taxonomy is reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, taxonomy string, id int64) (*types.Term, error) {
	if _, err := s.Taxonomy(taxonomy); err != nil {
		return nil, err
	}
	term, err := s.terms.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Taxonomy != taxonomy {
		return nil, types.ErrNotFound
	}
	return s.hooks.FilterTerm(ctx, term, taxonomy), nil
}

// List fetches the terms of taxonomy and runs them through the list filters.
func (s *Service) List(ctx context.Context, taxonomy string) ([]*types.Term, error) {
	if _, err := s.Taxonomy(taxonomy); err != nil {
		return nil, err
	}
	terms, err := s.terms.List(ctx, taxonomy)
	if err != nil {
		return nil, err
	}
	return s.hooks.FilterTerms(ctx, terms, taxonomy), nil
}

// Update saves the term's built-in fields and fires the term-edited event
// with the submitted form.
func (s *Service) Update(ctx context.Context, term *types.Term, form url.Values) error {
	if term == nil {
		return types.ErrInvalidData
	}
	if _, err := s.Taxonomy(term.Taxonomy); err != nil {
		return err
	}
	if err := s.terms.Update(ctx, term); err != nil {
		return err
	}
	ev := hooks.TermEvent{
		TermID:         term.ID,
		TermTaxonomyID: term.TermTaxonomyID,
		Taxonomy:       term.Taxonomy,
		Form:           form,
	}
	if err := s.hooks.TermEdited(ctx, ev); err != nil {
		return fmt.Errorf("term %d edited: %w", term.ID, err)
	}
	s.logger.Info("updated term", "term_id", term.ID, "taxonomy", term.Taxonomy)
	return nil
}

// Delete removes a term of taxonomy and fires the term-deleted event.
func (s *Service) Delete(ctx context.Context, taxonomy string, id int64) error {
	if _, err := s.Taxonomy(taxonomy); err != nil {
		return err
	}
	term, err := s.terms.Get(ctx, id)
	if err != nil {
		return err
	}
	if term.Taxonomy != taxonomy {
		return types.ErrNotFound
	}
	if err := s.terms.Delete(ctx, id); err != nil {
		return err
	}
	ev := hooks.TermEvent{TermID: term.ID, TermTaxonomyID: term.TermTaxonomyID, Taxonomy: taxonomy}
	if err := s.hooks.TermDeleted(ctx, ev); err != nil {
		return fmt.Errorf("term %d deleted: %w", id, err)
	}
	s.logger.Info("deleted term", "term_id", id, "taxonomy", taxonomy)
	return nil
}
