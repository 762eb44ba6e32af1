package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/printloft/storefront/pkg/types"
)

// PostgreSQL error code for check_violation
const pqCheckViolation = "23514"

const schema = `
CREATE TABLE IF NOT EXISTS cart_lines (
  id          TEXT PRIMARY KEY,
  user_id     TEXT NOT NULL,
  product_id  TEXT NOT NULL,
  name        TEXT NOT NULL DEFAULT '',
  price       NUMERIC(12,2) NOT NULL DEFAULT 0,
  image       TEXT NOT NULL DEFAULT '',
  emoji       TEXT NOT NULL DEFAULT '',
  quantity    INTEGER NOT NULL CHECK (quantity > 0),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, product_id)
);
CREATE INDEX IF NOT EXISTS cart_lines_user_idx ON cart_lines (user_id, created_at);

CREATE TABLE IF NOT EXISTS orders (
  id              TEXT PRIMARY KEY,
  user_id         TEXT NOT NULL,
  total           NUMERIC(12,2) NOT NULL,
  payment_method  TEXT NOT NULL,
  address         JSONB NOT NULL,
  lines           JSONB NOT NULL,
  placed_at       TIMESTAMPTZ NOT NULL
);`

// PostgresBackend implements Store on a PostgreSQL database using lib/pq
type PostgresBackend struct {
	DB *sql.DB
}

// OpenPostgres opens and pings a PostgreSQL connection
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return NewPostgresBackend(db), nil
}

// NewPostgresBackend wraps an existing connection pool
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{DB: db}
}

// Migrate creates the cart_lines and orders tables if they do not exist
func (r *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (r *PostgresBackend) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// GetCart returns the user's lines in insertion order
func (r *PostgresBackend) GetCart(ctx context.Context, userID string) ([]types.CartLine, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrInvalidUser
	}

	const q = `
SELECT id, product_id, name, price, image, emoji, quantity
FROM cart_lines
WHERE user_id = $1
ORDER BY created_at, id`

	rows, err := r.DB.QueryContext(ctx, q, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []types.CartLine{}
	for rows.Next() {
		var l types.CartLine
		if err := rows.Scan(
			&l.RemoteID,
			&l.ProductID,
			&l.Product.Name,
			&l.Product.Price,
			&l.Product.Image,
			&l.Product.Emoji,
			&l.Quantity,
		); err != nil {
			return nil, err
		}
		l.LineID = l.RemoteID
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// AddLine inserts a line for productID or adds qty to the existing one
func (r *PostgresBackend) AddLine(ctx context.Context, userID, productID string, snapshot types.ProductSnapshot, qty int) error {
	uid := strings.TrimSpace(userID)
	if err := checkArgs(uid, qty); err != nil {
		return err
	}

	const q = `
INSERT INTO cart_lines (id, user_id, product_id, name, price, image, emoji, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, product_id)
DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()`

	_, err := r.DB.ExecContext(ctx, q,
		uuid.NewString(),
		uid,
		strings.TrimSpace(productID),
		snapshot.Name,
		snapshot.Price,
		snapshot.Image,
		snapshot.Emoji,
		qty,
	)
	return classify(err)
}

// UpdateLineQuantity sets the quantity of an existing line
func (r *PostgresBackend) UpdateLineQuantity(ctx context.Context, userID, lineID string, qty int) error {
	uid := strings.TrimSpace(userID)
	if err := checkArgs(uid, qty); err != nil {
		return err
	}

	const q = `UPDATE cart_lines SET quantity = $1, updated_at = now() WHERE id = $2 AND user_id = $3`
	res, err := r.DB.ExecContext(ctx, q, qty, lineID, uid)
	if err != nil {
		return classify(err)
	}
	return requireAffected(res)
}

// RemoveLine deletes a line. ErrNotFound if it does not exist.
func (r *PostgresBackend) RemoveLine(ctx context.Context, userID, lineID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrInvalidUser
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`, lineID, uid)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ClearCart deletes every line the user owns
func (r *PostgresBackend) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrInvalidUser
	}

	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, uid)
	return err
}

// PlaceOrder records a completed order
func (r *PostgresBackend) PlaceOrder(ctx context.Context, order *types.Order) error {
	if strings.TrimSpace(order.UserID) == "" {
		return ErrInvalidUser
	}

	address, err := json.Marshal(order.Address)
	if err != nil {
		return err
	}
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO orders (id, user_id, total, payment_method, address, lines, placed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.DB.ExecContext(ctx, q,
		order.ID,
		order.UserID,
		order.Total,
		string(order.Method),
		address,
		lines,
		order.PlacedAt.UTC(),
	)
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// classify maps driver errors onto package errors
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqCheckViolation {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, pqErr.Message)
	}
	return err
}
