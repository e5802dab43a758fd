package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dealgate/pkg/domain"
)

func TestCanonicalOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("orders by created_at first", func(t *testing.T) {
		a := Event{ID: id.NewEventID(), CreatedAt: base.Add(time.Second)}
		b := Event{ID: id.NewEventID(), CreatedAt: base}
		assert.True(t, b.Less(a))
		assert.False(t, a.Less(b))
	})

	t.Run("breaks timestamp ties by id", func(t *testing.T) {
		lowID := id.EventID(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
		highID := id.EventID(uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"))
		a := Event{ID: highID, CreatedAt: base}
		b := Event{ID: lowID, CreatedAt: base}
		assert.True(t, b.Less(a))
		assert.False(t, a.Less(b))
	})

	t.Run("sort is deterministic across repeated runs", func(t *testing.T) {
		events := []Event{
			{ID: id.NewEventID(), CreatedAt: base.Add(2 * time.Second)},
			{ID: id.NewEventID(), CreatedAt: base},
			{ID: id.NewEventID(), CreatedAt: base},
			{ID: id.NewEventID(), CreatedAt: base.Add(time.Second)},
		}
		first := append([]Event{}, events...)
		SortCanonical(first)
		second := append([]Event{}, events...)
		SortCanonical(second)
		assert.Equal(t, first, second)
		for i := 1; i < len(first); i++ {
			assert.False(t, first[i].Less(first[i-1]))
		}
	})
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dealID := id.NewDealID()

	newEvent := func(typ Type, at time.Time) Event {
		return Event{
			ID:        id.NewEventID(),
			DealID:    dealID,
			Type:      typ,
			ActorID:   id.NewActorID(),
			CreatedAt: at,
		}
	}

	t.Run("list filters by time bound", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Append(ctx, newEvent(TypeReviewOpened, base)))
		require.NoError(t, store.Append(ctx, newEvent(TypeDealApproved, base.Add(time.Hour))))

		events, err := store.ListByDeal(ctx, dealID, base.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, TypeReviewOpened, events[0].Type)

		events, err = store.ListByDeal(ctx, dealID, base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("list returns canonical order regardless of append order", func(t *testing.T) {
		store := NewInMemoryStore()
		late := newEvent(TypeDealApproved, base.Add(time.Hour))
		early := newEvent(TypeReviewOpened, base)
		require.NoError(t, store.Append(ctx, late))
		require.NoError(t, store.Append(ctx, early))

		events, err := store.ListByDeal(ctx, dealID, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, early.ID, events[0].ID)
		assert.Equal(t, late.ID, events[1].ID)
	})

	t.Run("deals are isolated", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Append(ctx, newEvent(TypeReviewOpened, base)))

		events, err := store.ListByDeal(ctx, id.NewDealID(), base.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
