package engine

import (
	"context"
	"testing"
	"time"

	"github.com/printloft/storefront/pkg/config"
	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Notifications.Timeout = time.Minute
	return cfg
}

func start(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start(ctx))
	return e
}

var vase = types.ProductSnapshot{Name: "Spiral Vase", Price: decimal.NewFromInt(500)}

func TestEngineAnonymousCartSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	e := start(t, cfg)
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	assert.Equal(t, "Added Spiral Vase to cart", e.Notifier.Current().Message)
	require.NoError(t, e.Close())

	e = start(t, cfg)
	defer e.Close()

	assert.Equal(t, types.ModeAnonymous, e.Cart.Mode())
	require.Equal(t, 1, e.Cart.Len())
	assert.Equal(t, "1000", e.Cart.Total().String())
}

func TestEngineSignInPersistsIdentity(t *testing.T) {
	cfg := testConfig(t)

	e := start(t, cfg)
	require.NoError(t, e.Session.SignIn(types.Identity{UserID: "alice", Email: "alice@example.com"}))
	assert.Equal(t, types.ModeAuthenticated, e.Cart.Mode())
	require.NoError(t, e.Close())

	e = start(t, cfg)
	defer e.Close()

	assert.Equal(t, "alice", e.Session.Current().UserID)
	assert.Equal(t, types.ModeAuthenticated, e.Cart.Mode())
}

func TestEngineSignedInCartSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	e := start(t, cfg)
	require.NoError(t, e.Session.SignIn(types.Identity{UserID: "alice"}))
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	require.Equal(t, 1, e.Cart.Len())
	require.NoError(t, e.Close())

	e = start(t, cfg)
	defer e.Close()

	assert.Equal(t, "alice", e.Session.Current().UserID)
	assert.Equal(t, types.ModeAuthenticated, e.Cart.Mode())
	require.Equal(t, 1, e.Cart.Len())
	line, ok := e.Cart.Line("vase")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.NotEmpty(t, line.RemoteID)

	// Signing out goes back to the device cart, which the sign-in discarded
	require.NoError(t, e.Session.SignOut())
	assert.True(t, e.Cart.IsEmpty())
}

func TestEngineMemoryRemoteIsPerProcess(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.Kind = config.RemoteMemory
	ctx := context.Background()

	e := start(t, cfg)
	require.NoError(t, e.Session.SignIn(types.Identity{UserID: "alice"}))
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	_, ok := e.Remote.(*remote.MemoryBackend)
	assert.True(t, ok)
	require.NoError(t, e.Close())

	e = start(t, cfg)
	defer e.Close()
	assert.Equal(t, types.ModeAuthenticated, e.Cart.Mode())
	assert.True(t, e.Cart.IsEmpty())
}

func TestEngineCheckout(t *testing.T) {
	e := start(t, testConfig(t))
	defer e.Close()
	ctx := context.Background()

	sub := e.Broker.Subscribe()
	defer e.Broker.Unsubscribe(sub)

	require.NoError(t, e.Session.SignIn(types.Identity{UserID: "alice"}))
	require.NoError(t, e.Cart.Add(ctx, "vase", vase))
	require.NoError(t, e.Checkout.Start())
	require.NoError(t, e.Checkout.SubmitAddress(types.Address{
		Name: "Alice", Phone: "9800000000", Line1: "12 MG Road",
		City: "Bengaluru", State: "Karnataka", PostalCode: "560001",
	}))
	order, err := e.Checkout.SubmitPayment(ctx, types.PaymentCOD, types.PaymentDetails{})
	require.NoError(t, err)

	assert.True(t, e.Cart.IsEmpty())
	assert.Equal(t, "Order placed successfully!", e.Notifier.Current().Message)

	rb, ok := e.Remote.(*remote.BoltBackend)
	require.True(t, ok)
	orders, err := rb.Orders("alice")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	require.Eventually(t, func() bool {
		for {
			select {
			case ev := <-sub:
				if ev.Type == events.EventOrderPlaced {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)
}

func TestOpenRemoteUnknownKind(t *testing.T) {
	_, _, err := OpenRemote(context.Background(), config.RemoteConfig{Kind: "redis"}, nil)
	assert.ErrorContains(t, err, "unknown remote kind")
}

func TestOpenRemoteBoltNeedsLocalStore(t *testing.T) {
	_, _, err := OpenRemote(context.Background(), config.RemoteConfig{Kind: config.RemoteBolt}, nil)
	assert.ErrorContains(t, err, "requires the local store")
}

func TestCloseIsIdempotent(t *testing.T) {
	e := start(t, testConfig(t))
	require.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
