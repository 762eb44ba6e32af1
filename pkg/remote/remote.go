package remote

import (
	"context"
	"errors"

	"github.com/printloft/storefront/pkg/types"
)

var (
	// ErrNotFound is returned when a line does not exist for the user
	ErrNotFound = errors.New("remote: cart line not found")
	// ErrInvalidQuantity is returned when a quantity below 1 would be stored
	ErrInvalidQuantity = errors.New("remote: quantity must be at least 1")
	// ErrInvalidUser is returned when an operation is not scoped to a user
	ErrInvalidUser = errors.New("remote: user id is empty")
)

// Backend is the per-user remote cart table. Every call is scoped by userID
// and may fail independently of the others.
type Backend interface {
	// GetCart returns the user's lines in insertion order. LineID and RemoteID
	// both hold the record's primary key.
	GetCart(ctx context.Context, userID string) ([]types.CartLine, error)
	// AddLine inserts a line for productID, or adds qty to the existing one
	AddLine(ctx context.Context, userID, productID string, snapshot types.ProductSnapshot, qty int) error
	// UpdateLineQuantity sets the quantity of an existing line
	UpdateLineQuantity(ctx context.Context, userID, lineID string, qty int) error
	// RemoveLine deletes a line. ErrNotFound if it does not exist.
	RemoveLine(ctx context.Context, userID, lineID string) error
	// ClearCart deletes every line the user owns. Clearing an empty cart succeeds.
	ClearCart(ctx context.Context, userID string) error
}

// OrderRecorder closes out a completed checkout server-side
type OrderRecorder interface {
	PlaceOrder(ctx context.Context, order *types.Order) error
}

// Store is a Backend that also records orders
type Store interface {
	Backend
	OrderRecorder
}

func checkArgs(userID string, qty int) error {
	if userID == "" {
		return ErrInvalidUser
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return nil
}
