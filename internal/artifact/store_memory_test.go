package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dealgate/pkg/domain"
)

var uploadedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestInMemoryStore_Put(t *testing.T) {
	ctx := context.Background()
	dealID := id.NewDealID()
	content := []byte("wire confirmation, executed")

	t.Run("stores new content", func(t *testing.T) {
		store := NewInMemoryStore()
		record, created, err := store.Put(ctx, dealID, "wire.pdf", content, uploadedAt)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, HashBytes(content), record.Hash)
		assert.Equal(t, int64(len(content)), record.Size)
		assert.Equal(t, uploadedAt, record.CreatedAt)
	})

	t.Run("same deal re-upload returns existing record", func(t *testing.T) {
		store := NewInMemoryStore()
		first, created, err := store.Put(ctx, dealID, "wire.pdf", content, uploadedAt)
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := store.Put(ctx, dealID, "renamed.pdf", content, uploadedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "wire.pdf", second.Filename)
		assert.Equal(t, uploadedAt, second.CreatedAt)
	})

	t.Run("cross-deal duplicate is rejected", func(t *testing.T) {
		store := NewInMemoryStore()
		_, _, err := store.Put(ctx, dealID, "wire.pdf", content, uploadedAt)
		require.NoError(t, err)

		_, _, err = store.Put(ctx, id.NewDealID(), "wire.pdf", content, uploadedAt)
		assert.ErrorIs(t, err, ErrDealMismatch)
	})

	t.Run("get round trips bytes", func(t *testing.T) {
		store := NewInMemoryStore()
		record, _, err := store.Put(ctx, dealID, "wire.pdf", content, uploadedAt)
		require.NoError(t, err)

		got, data, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record, got)
		assert.Equal(t, content, data)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, _, err := store.Get(ctx, id.NewArtifactID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInMemoryStore_ListByDeal(t *testing.T) {
	ctx := context.Background()
	dealID := id.NewDealID()
	store := NewInMemoryStore()

	early, _, err := store.Put(ctx, dealID, "early.pdf", []byte("early"), uploadedAt)
	require.NoError(t, err)
	late, _, err := store.Put(ctx, dealID, "late.pdf", []byte("late"), uploadedAt.Add(time.Hour))
	require.NoError(t, err)
	_, _, err = store.Put(ctx, id.NewDealID(), "other.pdf", []byte("other"), uploadedAt)
	require.NoError(t, err)

	t.Run("excludes records uploaded after the bound", func(t *testing.T) {
		records, err := store.ListByDeal(ctx, dealID, uploadedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, early.ID, records[0].ID)
	})

	t.Run("bound is inclusive", func(t *testing.T) {
		records, err := store.ListByDeal(ctx, dealID, uploadedAt.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, early.ID, records[0].ID)
		assert.Equal(t, late.ID, records[1].ID)
	})
}
