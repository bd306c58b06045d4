package taxonomy

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/termmeta/internal/hooks"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

type memTerms struct {
	next  int64
	terms map[int64]types.Term
}

func newMemTerms() *memTerms {
	return &memTerms{terms: map[int64]types.Term{}}
}

func (m *memTerms) Create(_ context.Context, term *types.Term) (int64, error) {
	m.next++
	term.ID = m.next
	term.TermTaxonomyID = m.next
	if term.Slug == "" {
		term.Slug = term.Name
	}
	m.terms[term.ID] = *term
	return term.ID, nil
}

func (m *memTerms) Get(_ context.Context, id int64) (*types.Term, error) {
	t, ok := m.terms[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &t, nil
}

func (m *memTerms) Update(_ context.Context, term *types.Term) error {
	if _, ok := m.terms[term.ID]; !ok {
		return types.ErrNotFound
	}
	m.terms[term.ID] = *term
	return nil
}

func (m *memTerms) Delete(_ context.Context, id int64) error {
	if _, ok := m.terms[id]; !ok {
		return types.ErrNotFound
	}
	delete(m.terms, id)
	return nil
}

func (m *memTerms) List(_ context.Context, taxonomy string) ([]*types.Term, error) {
	out := []*types.Term{}
	for _, t := range m.terms {
		if t.Taxonomy == taxonomy {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func newService(t *testing.T) (*Service, *hooks.Registry) {
	t.Helper()
	reg := hooks.New()
	return New(newMemTerms(), reg, types.DefaultTaxonomies(), nil), reg
}

func TestService_Taxonomies(t *testing.T) {
	s := New(newMemTerms(), hooks.New(), []types.Taxonomy{
		{Name: "genre", Public: true},
		{Name: "category"},
		{Name: "genre", SingularLabel: "Genre", Public: true},
	}, nil)

	got := s.Taxonomies()
	require.Len(t, got, 2)
	assert.Equal(t, "genre", got[0].Name)
	assert.Equal(t, "Genre", got[0].SingularLabel, "later registration replaces earlier")
	assert.Equal(t, "category", got[1].Name)

	_, err := s.Taxonomy("missing")
	assert.ErrorIs(t, err, ErrUnknownTaxonomy)
}

func TestService_CreateRunsTermFilter(t *testing.T) {
	s, reg := newService(t)
	reg.AddTermFilter(hooks.DefaultPriority, func(_ context.Context, term *types.Term, taxonomy string) *types.Term {
		term.Meta = types.TermMeta{"seen": taxonomy}
		return term
	})

	term, err := s.Create(context.Background(), "category", "News", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), term.ID)
	assert.Equal(t, "category", term.Meta["seen"])
}

func TestService_CreateUnknownTaxonomy(t *testing.T) {
	s, _ := newService(t)
	_, err := s.Create(context.Background(), "genre", "Jazz", "", "")
	assert.ErrorIs(t, err, ErrUnknownTaxonomy)
}

func TestService_GetWrongTaxonomy(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	term, err := s.Create(ctx, "category", "News", "", "")
	require.NoError(t, err)

	_, err = s.Get(ctx, "post_tag", term.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.Get(ctx, "category", 99)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestService_ListRunsTermsFilter(t *testing.T) {
	s, reg := newService(t)
	ctx := context.Background()
	_, err := s.Create(ctx, "category", "Beta", "", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "category", "Alpha", "", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "post_tag", "Other", "", "")
	require.NoError(t, err)

	calls := 0
	reg.AddTermsFilter(hooks.DefaultPriority, func(_ context.Context, terms []*types.Term, _ string) []*types.Term {
		calls++
		return terms
	})

	terms, err := s.List(ctx, "category")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Alpha", terms[0].Name)
	assert.Equal(t, 1, calls)
}

func TestService_UpdateFiresTermEdited(t *testing.T) {
	s, reg := newService(t)
	ctx := context.Background()
	term, err := s.Create(ctx, "category", "News", "", "")
	require.NoError(t, err)

	var got hooks.TermEvent
	reg.OnTermEdited(hooks.DefaultPriority, func(_ context.Context, ev hooks.TermEvent) error {
		got = ev
		return nil
	})

	form := url.Values{"term-meta[headline]": {"Hello"}}
	term.Name = "Headlines"
	require.NoError(t, s.Update(ctx, term, form))

	assert.Equal(t, term.ID, got.TermID)
	assert.Equal(t, "category", got.Taxonomy)
	assert.Equal(t, "Hello", got.Form.Get("term-meta[headline]"))

	stored, err := s.Get(ctx, "category", term.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headlines", stored.Name)
}

func TestService_UpdateListenerError(t *testing.T) {
	s, reg := newService(t)
	ctx := context.Background()
	term, err := s.Create(ctx, "category", "News", "", "")
	require.NoError(t, err)

	boom := errors.New("boom")
	reg.OnTermEdited(hooks.DefaultPriority, func(context.Context, hooks.TermEvent) error { return boom })

	assert.ErrorIs(t, s.Update(ctx, term, nil), boom)
	assert.ErrorIs(t, s.Update(ctx, nil, nil), types.ErrInvalidData)
}

func TestService_DeleteFiresTermDeleted(t *testing.T) {
	s, reg := newService(t)
	ctx := context.Background()
	term, err := s.Create(ctx, "post_tag", "Go", "", "")
	require.NoError(t, err)

	var deleted []int64
	reg.OnTermDeleted(hooks.DefaultPriority, func(_ context.Context, ev hooks.TermEvent) error {
		deleted = append(deleted, ev.TermID)
		return nil
	})

	assert.ErrorIs(t, s.Delete(ctx, "category", term.ID), types.ErrNotFound)
	assert.Empty(t, deleted)

	require.NoError(t, s.Delete(ctx, "post_tag", term.ID))
	assert.Equal(t, []int64{term.ID}, deleted)

	_, err = s.Get(ctx, "post_tag", term.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
