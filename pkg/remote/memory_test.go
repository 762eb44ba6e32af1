package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printloft/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendContract(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemoryBackend() })
}

func TestMemoryBackendFailNext(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	boom := errors.New("network down")

	m.FailNext(OpAddLine, boom)
	assert.ErrorIs(t, m.AddLine(ctx, "u", "p-1", vase, 1), boom)

	// Failure was consumed and nothing was written
	lines, err := m.GetCart(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, m.AddLine(ctx, "u", "p-1", vase, 1))
	assert.Equal(t, 2, m.Calls(OpAddLine))
	assert.Equal(t, 1, m.Calls(OpGetCart))
}

func TestMemoryBackendDelayHonoursContext(t *testing.T) {
	m := NewMemoryBackend()
	m.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.GetCart(ctx, "u")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryBackendOrders(t *testing.T) {
	m := NewMemoryBackend()
	order := &types.Order{ID: "o-1", UserID: "u", Lines: []types.CartLine{{ProductID: "p-1", Quantity: 1}}}
	require.NoError(t, m.PlaceOrder(context.Background(), order))

	// Stored copy is independent of the caller's slice
	order.Lines[0].Quantity = 9

	orders := m.Orders("u")
	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].ID)
	assert.Equal(t, 1, orders[0].Lines[0].Quantity)
}

func TestMemoryBackendSeed(t *testing.T) {
	m := NewMemoryBackend()
	id := m.Seed("u", "p-2", gear, 3)

	lines, err := m.GetCart(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, id, lines[0].RemoteID)
	assert.Equal(t, 3, lines[0].Quantity)
}
