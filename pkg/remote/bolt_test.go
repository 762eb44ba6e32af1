package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openBoltDB(t *testing.T, path string) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	return db
}

func newBoltBackend(t *testing.T) *BoltBackend {
	t.Helper()
	db := openBoltDB(t, filepath.Join(t.TempDir(), "remote.db"))
	t.Cleanup(func() { _ = db.Close() })
	b, err := NewBoltBackend(db)
	require.NoError(t, err)
	return b
}

func TestBoltBackendContract(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return newBoltBackend(t) })
}

func TestBoltBackendNilDB(t *testing.T) {
	_, err := NewBoltBackend(nil)
	assert.Error(t, err)
}

func TestBoltBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "remote.db")

	db := openBoltDB(t, path)
	b, err := NewBoltBackend(db)
	require.NoError(t, err)
	require.NoError(t, b.AddLine(ctx, "alice", "p-1", vase, 2))
	require.NoError(t, b.AddLine(ctx, "alice", "p-2", gear, 1))
	require.NoError(t, db.Close())

	db = openBoltDB(t, path)
	defer db.Close()
	b, err = NewBoltBackend(db)
	require.NoError(t, err)

	lines, err := b.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "p-1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Spiral Vase", lines[0].Product.Name)
	assert.Equal(t, "🏺", lines[0].Product.Emoji)
	assert.True(t, gear.Price.Equal(lines[1].Product.Price))

	// New lines keep sorting after the reopened ones
	require.NoError(t, b.AddLine(ctx, "alice", "p-3", vase, 1))
	lines, err = b.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "p-3", lines[2].ProductID)
}

func TestBoltBackendOrders(t *testing.T) {
	ctx := context.Background()
	b := newBoltBackend(t)

	order := &types.Order{
		ID:       "o-1",
		UserID:   "alice",
		Lines:    []types.CartLine{{LineID: "l", ProductID: "p-1", Product: vase, Quantity: 2}},
		Total:    decimal.NewFromInt(1000),
		Method:   types.PaymentCOD,
		PlacedAt: time.Now().UTC(),
	}
	require.NoError(t, b.PlaceOrder(ctx, order))

	orders, err := b.Orders("alice")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.True(t, order.Total.Equal(orders[0].Total))
	assert.Equal(t, 2, orders[0].Lines[0].Quantity)

	orders, err = b.Orders("bob")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestBoltBackendHonoursContext(t *testing.T) {
	b := newBoltBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.GetCart(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.AddLine(ctx, "alice", "p-1", vase, 1), context.Canceled)
}
