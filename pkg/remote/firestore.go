package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreBackend implements Store using Firestore.
//
// Layout:
//   - carts/{userId}/lines/{lineId}: one document per cart line
//   - orders/{orderId}: completed orders
type FirestoreBackend struct {
	Client          *firestore.Client
	CartsCollection string
	OrderCollection string
}

// OpenFirestore creates a Firestore client for projectID.
// When FIRESTORE_EMULATOR_HOST is set the client talks to the emulator.
func OpenFirestore(ctx context.Context, projectID string) (*FirestoreBackend, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreBackend(client), nil
}

// NewFirestoreBackend wraps an existing client with the default collection names
func NewFirestoreBackend(client *firestore.Client) *FirestoreBackend {
	return &FirestoreBackend{
		Client:          client,
		CartsCollection: "carts",
		OrderCollection: "orders",
	}
}

// Close closes the client
func (r *FirestoreBackend) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

type lineDoc struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Price     string    `firestore:"price"`
	Image     string    `firestore:"image"`
	Emoji     string    `firestore:"emoji"`
	Quantity  int       `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type orderDoc struct {
	UserID        string         `firestore:"userId"`
	Total         string         `firestore:"total"`
	PaymentMethod string         `firestore:"paymentMethod"`
	Address       types.Address  `firestore:"address"`
	Lines         []orderLineDoc `firestore:"lines"`
	PlacedAt      time.Time      `firestore:"placedAt"`
}

type orderLineDoc struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Price     string `firestore:"price"`
	Quantity  int    `firestore:"quantity"`
}

func (r *FirestoreBackend) lines(userID string) *firestore.CollectionRef {
	return r.Client.Collection(r.CartsCollection).Doc(userID).Collection("lines")
}

func (r *FirestoreBackend) ready(userID string) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("firestore backend: client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", ErrInvalidUser
	}
	return uid, nil
}

// GetCart returns the user's lines in insertion order
func (r *FirestoreBackend) GetCart(ctx context.Context, userID string) ([]types.CartLine, error) {
	uid, err := r.ready(userID)
	if err != nil {
		return nil, err
	}

	iter := r.lines(uid).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	lines := []types.CartLine{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc lineDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore backend: decode line %s: %w", snap.Ref.ID, err)
		}
		lines = append(lines, doc.toLine(snap.Ref.ID))
	}
	return lines, nil
}

// AddLine inserts a line for productID or adds qty to the existing one
func (r *FirestoreBackend) AddLine(ctx context.Context, userID, productID string, snapshot types.ProductSnapshot, qty int) error {
	uid, err := r.ready(userID)
	if err != nil {
		return err
	}
	if err := checkArgs(uid, qty); err != nil {
		return err
	}

	col := r.lines(uid)
	pid := strings.TrimSpace(productID)

	// Update-if-exists else insert, atomically
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(col.Where("productId", "==", pid).Limit(1)).GetAll()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if len(existing) > 0 {
			return tx.Update(existing[0].Ref, []firestore.Update{
				{Path: "quantity", Value: firestore.Increment(qty)},
				{Path: "updatedAt", Value: now},
			})
		}

		return tx.Create(col.Doc(uuid.NewString()), lineDoc{
			ProductID: pid,
			Name:      snapshot.Name,
			Price:     snapshot.Price.String(),
			Image:     snapshot.Image,
			Emoji:     snapshot.Emoji,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

// UpdateLineQuantity sets the quantity of an existing line
func (r *FirestoreBackend) UpdateLineQuantity(ctx context.Context, userID, lineID string, qty int) error {
	uid, err := r.ready(userID)
	if err != nil {
		return err
	}
	if err := checkArgs(uid, qty); err != nil {
		return err
	}

	_, err = r.lines(uid).Doc(lineID).Update(ctx, []firestore.Update{
		{Path: "quantity", Value: qty},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return notFound(err)
}

// RemoveLine deletes a line. ErrNotFound if it does not exist.
func (r *FirestoreBackend) RemoveLine(ctx context.Context, userID, lineID string) error {
	uid, err := r.ready(userID)
	if err != nil {
		return err
	}

	_, err = r.lines(uid).Doc(lineID).Delete(ctx, firestore.Exists)
	return notFound(err)
}

// ClearCart deletes every line document. Missing carts are already clear.
func (r *FirestoreBackend) ClearCart(ctx context.Context, userID string) error {
	uid, err := r.ready(userID)
	if err != nil {
		return err
	}

	snaps, err := r.lines(uid).Documents(ctx).GetAll()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, snap := range snaps {
		ref := snap.Ref
		g.Go(func() error {
			_, err := ref.Delete(gctx)
			return notFoundOK(err)
		})
	}
	return g.Wait()
}

// PlaceOrder records a completed order
func (r *FirestoreBackend) PlaceOrder(ctx context.Context, order *types.Order) error {
	uid, err := r.ready(order.UserID)
	if err != nil {
		return err
	}

	doc := orderDoc{
		UserID:        uid,
		Total:         order.Total.String(),
		PaymentMethod: string(order.Method),
		Address:       order.Address,
		PlacedAt:      order.PlacedAt.UTC(),
	}
	for _, l := range order.Lines {
		doc.Lines = append(doc.Lines, orderLineDoc{
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Price:     l.Product.Price.String(),
			Quantity:  l.Quantity,
		})
	}

	_, err = r.Client.Collection(r.OrderCollection).Doc(order.ID).Create(ctx, doc)
	return err
}

func (d lineDoc) toLine(id string) types.CartLine {
	// Unparseable prices degrade to zero rather than hiding the line
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		price = decimal.Zero
	}
	return types.CartLine{
		LineID:    id,
		RemoteID:  id,
		ProductID: d.ProductID,
		Product: types.ProductSnapshot{
			Name:  d.Name,
			Price: price,
			Image: d.Image,
			Emoji: d.Emoji,
		},
		Quantity: d.Quantity,
	}
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func notFoundOK(err error) error {
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}
