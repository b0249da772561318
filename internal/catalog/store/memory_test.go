package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commune/internal/catalog/models"
	id "commune/pkg/domain"
	"commune/pkg/platform/sentinel"
)

func TestInMemoryMarkSold(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	seller := id.MemberID(uuid.New())
	item, err := models.NewItem(id.ItemID(0), seller, "lamp", "a reading lamp",
		10, id.DefaultTaxRate, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, item))

	buyer := id.MemberID(uuid.New())
	require.NoError(t, store.MarkSold(ctx, item.ID, buyer))

	t.Run("the sale is recorded", func(t *testing.T) {
		got, err := store.Find(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, got.Sold)
		assert.Equal(t, buyer, got.Buyer)
	})

	t.Run("second sale collides and keeps the first buyer", func(t *testing.T) {
		err := store.MarkSold(ctx, item.ID, id.MemberID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)

		got, err := store.Find(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, buyer, got.Buyer)
	})

	t.Run("missing item is not found", func(t *testing.T) {
		err := store.MarkSold(ctx, id.ItemID(99), buyer)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
