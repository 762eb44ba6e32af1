package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/storage"
	"github.com/printloft/storefront/pkg/types"
)

// backend is the strategy for one cart mode. Implementations never mutate the
// slice they are given; they return the new authoritative line set.
type backend interface {
	mode() types.CartMode
	// synchronous backends complete without suspending and are run under the store lock
	synchronous() bool
	component() string
	load(ctx context.Context) ([]types.CartLine, error)
	add(ctx context.Context, current []types.CartLine, productID string, snapshot types.ProductSnapshot) ([]types.CartLine, error)
	setQuantity(ctx context.Context, current []types.CartLine, line types.CartLine, qty int) ([]types.CartLine, error)
	remove(ctx context.Context, current []types.CartLine, line types.CartLine) ([]types.CartLine, error)
	clear(ctx context.Context) ([]types.CartLine, error)
}

// localBackend keeps the cart in the device store, written through on every change
type localBackend struct {
	kv    storage.KV
	clock func() time.Time
}

func (b *localBackend) mode() types.CartMode { return types.ModeAnonymous }
func (b *localBackend) synchronous() bool    { return true }
func (b *localBackend) component() string    { return metrics.ComponentLocalStore }

func (b *localBackend) load(_ context.Context) ([]types.CartLine, error) {
	raw, ok, err := b.kv.Get(storage.CartKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []types.CartLine{}, nil
	}

	var lines []types.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		// A corrupt local copy is discarded rather than blocking the cart
		logger := log.WithComponent("cart")
		logger.Warn().Err(err).Msg("Discarding unreadable local cart")
		return []types.CartLine{}, nil
	}
	return normalize(lines), nil
}

func (b *localBackend) add(_ context.Context, current []types.CartLine, productID string, snapshot types.ProductSnapshot) ([]types.CartLine, error) {
	next := types.CloneLines(current)
	if idx := types.FindByProduct(next, productID); idx >= 0 {
		next[idx].Quantity++
	} else {
		next = append(next, types.CartLine{
			LineID:    b.newLineID(next),
			ProductID: productID,
			Product:   snapshot,
			Quantity:  1,
		})
	}
	return next, b.persist(next)
}

func (b *localBackend) setQuantity(_ context.Context, current []types.CartLine, line types.CartLine, qty int) ([]types.CartLine, error) {
	next := types.CloneLines(current)
	idx := types.FindByLineID(next, line.LineID)
	if idx < 0 {
		return next, nil
	}
	next[idx].Quantity = qty
	return next, b.persist(next)
}

func (b *localBackend) remove(_ context.Context, current []types.CartLine, line types.CartLine) ([]types.CartLine, error) {
	next := make([]types.CartLine, 0, len(current))
	for _, l := range current {
		if l.LineID != line.LineID {
			next = append(next, l)
		}
	}
	return next, b.persist(next)
}

func (b *localBackend) clear(_ context.Context) ([]types.CartLine, error) {
	return []types.CartLine{}, b.kv.Remove(storage.CartKey)
}

func (b *localBackend) persist(lines []types.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return b.kv.Set(storage.CartKey, string(data))
}

// newLineID derives an ID from the clock, bumped until unique within the cart
func (b *localBackend) newLineID(lines []types.CartLine) string {
	n := b.clock().UnixNano()
	for {
		id := strconv.FormatInt(n, 10)
		if types.FindByLineID(lines, id) < 0 {
			return id
		}
		n++
	}
}

// remoteBackend keeps the cart in the user's remote table and re-reads the
// whole cart after every write
type remoteBackend struct {
	remote remote.Backend
	userID string
}

func (b *remoteBackend) mode() types.CartMode { return types.ModeAuthenticated }
func (b *remoteBackend) synchronous() bool    { return false }
func (b *remoteBackend) component() string    { return metrics.ComponentRemoteBackend }

func (b *remoteBackend) load(ctx context.Context) ([]types.CartLine, error) {
	lines, err := b.remote.GetCart(ctx, b.userID)
	if err != nil {
		return nil, err
	}
	return normalize(lines), nil
}

func (b *remoteBackend) add(ctx context.Context, current []types.CartLine, productID string, snapshot types.ProductSnapshot) ([]types.CartLine, error) {
	var err error
	if idx := types.FindByProduct(current, productID); idx >= 0 && current[idx].RemoteID != "" {
		err = b.remote.UpdateLineQuantity(ctx, b.userID, current[idx].RemoteID, current[idx].Quantity+1)
		if errors.Is(err, remote.ErrNotFound) {
			// Removed elsewhere since the last reload
			err = b.remote.AddLine(ctx, b.userID, productID, snapshot, 1)
		}
	} else {
		err = b.remote.AddLine(ctx, b.userID, productID, snapshot, 1)
	}
	if err != nil {
		return nil, err
	}
	return b.load(ctx)
}

func (b *remoteBackend) setQuantity(ctx context.Context, _ []types.CartLine, line types.CartLine, qty int) ([]types.CartLine, error) {
	err := b.remote.UpdateLineQuantity(ctx, b.userID, line.RemoteID, qty)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return nil, err
	}
	return b.load(ctx)
}

func (b *remoteBackend) remove(ctx context.Context, _ []types.CartLine, line types.CartLine) ([]types.CartLine, error) {
	err := b.remote.RemoveLine(ctx, b.userID, line.RemoteID)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return nil, err
	}
	return b.load(ctx)
}

func (b *remoteBackend) clear(ctx context.Context) ([]types.CartLine, error) {
	if err := b.remote.ClearCart(ctx, b.userID); err != nil {
		return nil, err
	}
	return []types.CartLine{}, nil
}

// normalize drops lines with no positive quantity and merges duplicate products,
// keeping the first line's identity
func normalize(lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if idx := types.FindByProduct(out, l.ProductID); idx >= 0 {
			out[idx].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}
