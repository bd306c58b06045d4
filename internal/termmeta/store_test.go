package termmeta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// memStore is an in-memory MetaStore that counts writes.
type memStore struct {
	table  types.MetaTable
	writes int
	err    error
}

func newMemStore() *memStore {
	return &memStore{table: types.MetaTable{}}
}

func (m *memStore) Load(context.Context) (types.MetaTable, error) {
	out := make(types.MetaTable, len(m.table))
	for id, meta := range m.table {
		out[id] = meta.Clone()
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, id int64, fields types.TermMeta) error {
	if m.err != nil {
		return m.err
	}
	m.writes++
	m.table[id] = fields.Clone()
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	m.writes++
	delete(m.table, id)
	return nil
}

func TestStore_SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	s := NewStore(mem, nil)

	require.NoError(t, s.Save(ctx, 5, types.TermMeta{types.FieldHeadline: "Hi"}))
	table, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.MetaTable{5: {types.FieldHeadline: "Hi"}}, table)

	require.NoError(t, s.Delete(ctx, 5))
	table, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Equal(t, 2, mem.writes)
}

func TestStore_SaveSkippedInAsyncRequest(t *testing.T) {
	mem := newMemStore()
	s := NewStore(mem, nil)

	ctx := request.With(context.Background(), request.Info{Async: true, Action: "inline-save-tax"})
	require.NoError(t, s.Save(ctx, 5, types.TermMeta{types.FieldHeadline: "Hi"}))
	assert.Zero(t, mem.writes)
	assert.Empty(t, mem.table)
}

func TestStore_DeleteRunsInAsyncRequest(t *testing.T) {
	mem := newMemStore()
	mem.table[5] = types.TermMeta{types.FieldHeadline: "Hi"}
	s := NewStore(mem, nil)

	ctx := request.With(context.Background(), request.Info{Async: true, Action: "delete-tag"})
	require.NoError(t, s.Delete(ctx, 5))
	assert.Empty(t, mem.table)
}

func TestStore_PropagatesErrors(t *testing.T) {
	boom := errors.New("disk full")
	mem := newMemStore()
	mem.err = boom
	s := NewStore(mem, nil)

	assert.ErrorIs(t, s.Save(context.Background(), 1, nil), boom)
	assert.ErrorIs(t, s.Delete(context.Background(), 1), boom)
}
