package remote

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vase = types.ProductSnapshot{Name: "Spiral Vase", Price: decimal.NewFromInt(500), Emoji: "🏺"}
	gear = types.ProductSnapshot{Name: "Gear Keychain", Price: decimal.RequireFromString("149.50")}
)

// runContract exercises the behaviour every Store implementation must share
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		s := newStore(t)
		lines, err := s.GetCart(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("add is an upsert per product", func(t *testing.T) {
		s := newStore(t)
		user := uuid.NewString()

		require.NoError(t, s.AddLine(ctx, user, "p-1", vase, 1))
		require.NoError(t, s.AddLine(ctx, user, "p-1", vase, 1))
		require.NoError(t, s.AddLine(ctx, user, "p-2", gear, 3))

		lines, err := s.GetCart(ctx, user)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.Equal(t, "p-1", lines[0].ProductID)
		assert.Equal(t, 2, lines[0].Quantity)
		assert.Equal(t, lines[0].LineID, lines[0].RemoteID)
		assert.NotEmpty(t, lines[0].RemoteID)
		assert.True(t, vase.Price.Equal(lines[0].Product.Price))

		assert.Equal(t, "p-2", lines[1].ProductID)
		assert.Equal(t, 3, lines[1].Quantity)
		assert.True(t, gear.Price.Equal(lines[1].Product.Price))
	})

	t.Run("update and remove", func(t *testing.T) {
		s := newStore(t)
		user := uuid.NewString()
		require.NoError(t, s.AddLine(ctx, user, "p-1", vase, 1))

		lines, err := s.GetCart(ctx, user)
		require.NoError(t, err)
		id := lines[0].RemoteID

		require.NoError(t, s.UpdateLineQuantity(ctx, user, id, 5))
		lines, _ = s.GetCart(ctx, user)
		assert.Equal(t, 5, lines[0].Quantity)

		assert.ErrorIs(t, s.UpdateLineQuantity(ctx, user, id, 0), ErrInvalidQuantity)

		require.NoError(t, s.RemoveLine(ctx, user, id))
		assert.ErrorIs(t, s.RemoveLine(ctx, user, id), ErrNotFound)
		assert.ErrorIs(t, s.UpdateLineQuantity(ctx, user, id, 2), ErrNotFound)
	})

	t.Run("lines are scoped by user", func(t *testing.T) {
		s := newStore(t)
		alice, bob := uuid.NewString(), uuid.NewString()
		require.NoError(t, s.AddLine(ctx, alice, "p-1", vase, 1))

		lines, err := s.GetCart(ctx, alice)
		require.NoError(t, err)
		require.Len(t, lines, 1)

		assert.ErrorIs(t, s.RemoveLine(ctx, bob, lines[0].RemoteID), ErrNotFound)

		require.NoError(t, s.ClearCart(ctx, bob))
		lines, _ = s.GetCart(ctx, alice)
		assert.Len(t, lines, 1)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		s := newStore(t)
		user := uuid.NewString()
		require.NoError(t, s.AddLine(ctx, user, "p-1", vase, 1))
		require.NoError(t, s.AddLine(ctx, user, "p-2", gear, 1))

		require.NoError(t, s.ClearCart(ctx, user))
		require.NoError(t, s.ClearCart(ctx, user))

		lines, err := s.GetCart(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("place order", func(t *testing.T) {
		s := newStore(t)
		order := &types.Order{
			ID:       uuid.NewString(),
			UserID:   uuid.NewString(),
			Lines:    []types.CartLine{{LineID: "l", ProductID: "p-1", Product: vase, Quantity: 2}},
			Total:    decimal.NewFromInt(1000),
			Method:   types.PaymentCOD,
			Address:  types.Address{Name: "A", Phone: "1", Line1: "L", City: "C", State: "S", PostalCode: "560001"},
			PlacedAt: time.Now(),
		}
		assert.NoError(t, s.PlaceOrder(ctx, order))
	})

	t.Run("requires a user", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.AddLine(ctx, "", "p-1", vase, 1), ErrInvalidUser)
		assert.ErrorIs(t, s.ClearCart(ctx, ""), ErrInvalidUser)
		assert.ErrorIs(t, s.PlaceOrder(ctx, &types.Order{ID: "o"}), ErrInvalidUser)
	})
}
