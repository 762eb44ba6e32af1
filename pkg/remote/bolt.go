package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCarts  = []byte("carts")
	bucketOrders = []byte("orders")
)

// BoltBackend implements Store on a bbolt database, for single-device setups
// where signed-in carts must outlive the process.
//
// Layout:
//   - carts/{userId}/{lineId}: one JSON document per cart line
//   - orders/{userId}/{orderId}: completed orders
//
// Line IDs come from the per-user bucket sequence, so key order is insertion order.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend creates the cart and order buckets in db. The caller keeps
// ownership of db.
func NewBoltBackend(db *bolt.DB) (*BoltBackend, error) {
	if db == nil {
		return nil, errors.New("bolt backend: db is nil")
	}
	err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCarts, bucketOrders} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltBackend{db: db}, nil
}

type boltLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Emoji     string          `json:"emoji,omitempty"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (d boltLine) toLine(id string) types.CartLine {
	return types.CartLine{
		LineID:    id,
		RemoteID:  id,
		ProductID: d.ProductID,
		Product: types.ProductSnapshot{
			Name:  d.Name,
			Price: d.Price,
			Image: d.Image,
			Emoji: d.Emoji,
		},
		Quantity: d.Quantity,
	}
}

func boltUser(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", ErrInvalidUser
	}
	return uid, nil
}

// GetCart returns the user's lines in insertion order
func (b *BoltBackend) GetCart(ctx context.Context, userID string) ([]types.CartLine, error) {
	uid, err := boltUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := []types.CartLine{}
	err = b.db.View(func(tx *bolt.Tx) error {
		ub := tx.Bucket(bucketCarts).Bucket([]byte(uid))
		if ub == nil {
			return nil
		}
		return ub.ForEach(func(k, v []byte) error {
			var doc boltLine
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("bolt backend: decode line %s: %w", k, err)
			}
			lines = append(lines, doc.toLine(string(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AddLine inserts a line for productID or adds qty to the existing one
func (b *BoltBackend) AddLine(ctx context.Context, userID, productID string, snapshot types.ProductSnapshot, qty int) error {
	uid, err := boltUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := checkArgs(uid, qty); err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)

	return b.db.Update(func(tx *bolt.Tx) error {
		ub, err := tx.Bucket(bucketCarts).CreateBucketIfNotExists([]byte(uid))
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		c := ub.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var doc boltLine
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("bolt backend: decode line %s: %w", k, err)
			}
			if doc.ProductID != pid {
				continue
			}
			doc.Quantity += qty
			doc.UpdatedAt = now
			return putJSON(ub, k, doc)
		}

		seq, err := ub.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(ub, []byte(fmt.Sprintf("%016x", seq)), boltLine{
			ProductID: pid,
			Name:      snapshot.Name,
			Price:     snapshot.Price,
			Image:     snapshot.Image,
			Emoji:     snapshot.Emoji,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

// UpdateLineQuantity sets the quantity of an existing line
func (b *BoltBackend) UpdateLineQuantity(ctx context.Context, userID, lineID string, qty int) error {
	uid, err := boltUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := checkArgs(uid, qty); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		ub := tx.Bucket(bucketCarts).Bucket([]byte(uid))
		if ub == nil {
			return ErrNotFound
		}
		v := ub.Get([]byte(lineID))
		if v == nil {
			return ErrNotFound
		}

		var doc boltLine
		if err := json.Unmarshal(v, &doc); err != nil {
			return fmt.Errorf("bolt backend: decode line %s: %w", lineID, err)
		}
		doc.Quantity = qty
		doc.UpdatedAt = time.Now().UTC()
		return putJSON(ub, []byte(lineID), doc)
	})
}

// RemoveLine deletes a line. ErrNotFound if it does not exist.
func (b *BoltBackend) RemoveLine(ctx context.Context, userID, lineID string) error {
	uid, err := boltUser(ctx, userID)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		ub := tx.Bucket(bucketCarts).Bucket([]byte(uid))
		if ub == nil || ub.Get([]byte(lineID)) == nil {
			return ErrNotFound
		}
		return ub.Delete([]byte(lineID))
	})
}

// ClearCart drops the user's bucket. Missing carts are already clear.
func (b *BoltBackend) ClearCart(ctx context.Context, userID string) error {
	uid, err := boltUser(ctx, userID)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		carts := tx.Bucket(bucketCarts)
		if carts.Bucket([]byte(uid)) == nil {
			return nil
		}
		return carts.DeleteBucket([]byte(uid))
	})
}

// PlaceOrder stores order under its user
func (b *BoltBackend) PlaceOrder(ctx context.Context, order *types.Order) error {
	uid, err := boltUser(ctx, order.UserID)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		ub, err := tx.Bucket(bucketOrders).CreateBucketIfNotExists([]byte(uid))
		if err != nil {
			return err
		}
		return putJSON(ub, []byte(order.ID), order)
	})
}

// Orders returns the orders recorded for userID, ordered by ID
func (b *BoltBackend) Orders(userID string) ([]*types.Order, error) {
	var orders []*types.Order
	err := b.db.View(func(tx *bolt.Tx) error {
		ub := tx.Bucket(bucketOrders).Bucket([]byte(userID))
		if ub == nil {
			return nil
		}
		return ub.ForEach(func(k, v []byte) error {
			var order types.Order
			if err := json.Unmarshal(v, &order); err != nil {
				return fmt.Errorf("bolt backend: decode order %s: %w", k, err)
			}
			orders = append(orders, &order)
			return nil
		})
	})
	return orders, err
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
