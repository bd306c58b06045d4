package hooks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

func TestRegistry_EditSectionsOrder(t *testing.T) {
	r := New()
	write := func(s string) SectionFunc {
		return func(w io.Writer, _ *types.Term, _ types.Taxonomy) error {
			_, err := io.WriteString(w, s)
			return err
		}
	}

	r.AddEditSection("category", DefaultPriority, write("b"))
	r.AddEditSection("category", 5, write("a"))
	r.AddEditSection("category", DefaultPriority, write("c"))
	r.AddEditSection("post_tag", DefaultPriority, write("x"))

	var buf bytes.Buffer
	err := r.RenderEditSections(&buf, &types.Term{ID: 1}, types.Taxonomy{Name: "category"})
	require.NoError(t, err)
	assert.Equal(t, "abc", buf.String())

	assert.True(t, r.HasEditSections("post_tag"))
	assert.False(t, r.HasEditSections("genre"))
}

func TestRegistry_RenderStopsAtError(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	called := false
	r.AddEditSection("category", 1, func(io.Writer, *types.Term, types.Taxonomy) error { return boom })
	r.AddEditSection("category", 2, func(io.Writer, *types.Term, types.Taxonomy) error {
		called = true
		return nil
	})

	err := r.RenderEditSections(io.Discard, &types.Term{}, types.Taxonomy{Name: "category"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestRegistry_TermEventsRunAllListeners(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	var seen []int64

	r.OnTermEdited(DefaultPriority, func(_ context.Context, ev TermEvent) error {
		seen = append(seen, ev.TermID)
		return boom
	})
	r.OnTermEdited(DefaultPriority, func(_ context.Context, ev TermEvent) error {
		seen = append(seen, ev.TermID*10)
		return nil
	})

	err := r.TermEdited(context.Background(), TermEvent{TermID: 4})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{4, 40}, seen)

	assert.NoError(t, r.TermDeleted(context.Background(), TermEvent{TermID: 4}))
}

func TestRegistry_TermEventsReturnFirstError(t *testing.T) {
	r := New()
	first, second := errors.New("first"), errors.New("second")
	calls := 0

	r.OnTermDeleted(20, func(context.Context, TermEvent) error {
		calls++
		return second
	})
	r.OnTermDeleted(5, func(context.Context, TermEvent) error {
		calls++
		return first
	})
	r.OnTermDeleted(30, func(context.Context, TermEvent) error {
		calls++
		return nil
	})

	err := r.TermDeleted(context.Background(), TermEvent{TermID: 9})
	assert.Same(t, first, err)
	assert.NotErrorIs(t, err, second)
	assert.Equal(t, 3, calls)
}

func TestRegistry_FilterTerm(t *testing.T) {
	r := New()
	assert.Nil(t, r.FilterTerm(context.Background(), nil, "category"))

	r.AddTermFilter(20, func(_ context.Context, term *types.Term, _ string) *types.Term {
		term.Name += "-late"
		return term
	})
	r.AddTermFilter(1, func(_ context.Context, term *types.Term, tax string) *types.Term {
		term.Name += "-" + tax
		return term
	})

	got := r.FilterTerm(context.Background(), &types.Term{Name: "news"}, "category")
	assert.Equal(t, "news-category-late", got.Name)
}

func TestRegistry_FilterTerms(t *testing.T) {
	r := New()
	in := []*types.Term{{ID: 1}, {ID: 2}}
	assert.Equal(t, in, r.FilterTerms(context.Background(), in, "category"))

	r.AddTermsFilter(DefaultPriority, func(_ context.Context, terms []*types.Term, _ string) []*types.Term {
		return terms[:1]
	})
	got := r.FilterTerms(context.Background(), in, "category")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
