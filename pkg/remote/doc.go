/*
Package remote implements the per-user remote cart table and order records.

Backend is the persistence boundary the cart store depends on when a user is
signed in. Every operation is scoped by user ID, so one user's lines are never
visible to another. Store adds OrderRecorder, which the checkout coordinator
uses to close out a completed order server-side.

# Architecture

	┌──────────────── cart.Store (authenticated mode) ─────────────────┐
	│  write (add / update / remove / clear)                           │
	│        │                                                         │
	│        ▼                                                         │
	│  ┌──────────────┐   success   ┌──────────────┐                   │
	│  │ remote write │ ──────────▶ │ GetCart      │ ─▶ cart lines     │
	│  └──────────────┘             └──────────────┘                   │
	└──────────────────────────────────────────────────────────────────┘
	           │                              │
	           ▼                              ▼
	  ┌────────────────────────── Backend ──────────────────────────┐
	  │ BoltBackend │ MemoryBackend │ PostgresBackend │ Firestore   │
	  └─────────────────────────────────────────────────────────────┘

The cart store never patches its lines from a write response. After every
successful write it reads the whole cart back with GetCart, so the backend
stays the single source of truth.

# Implementations

BoltBackend:
  - Buckets carts/{userId}/{lineId} and orders/{userId}/{orderId}
  - Shares the device database opened by storage.BoltStore
  - Line IDs come from the bucket sequence; key order is insertion order
  - Default for single-device use: signed-in carts survive restarts

MemoryBackend:
  - Process memory only; carts are lost on exit
  - FailNext queues an error for the next call of an operation
  - SetDelay slows every call, honouring context cancellation
  - Calls counts invocations per operation, for read-after-write assertions

PostgresBackend:
  - Tables cart_lines and orders, created by Migrate
  - Unique (user_id, product_id) makes AddLine an upsert
  - A CHECK constraint keeps quantity at 1 or more

FirestoreBackend:
  - carts/{userId}/lines/{lineId} and orders/{orderId}
  - AddLine runs in a transaction with an atomic Increment
  - ClearCart deletes line documents concurrently

# Errors

  - ErrNotFound: the line does not exist for this user. The cart store treats
    it as a stale reference.
  - ErrInvalidQuantity: a quantity below 1 would be stored
  - ErrInvalidUser: the call was not scoped to a user
  - Anything else is a transport or storage failure, surfaced to the visitor
    as a generic failure

# Usage

	db, _ := bolt.Open("storefront.db", 0600, nil)
	rb, err := remote.NewBoltBackend(db)
	if err != nil {
		return err
	}

	err = rb.AddLine(ctx, "alice", "vase", snapshot, 1)
	lines, err := rb.GetCart(ctx, "alice")

Tests inject failures through MemoryBackend:

	rb := remote.NewMemoryBackend()
	rb.FailNext(remote.OpAddLine, errors.New("network down"))

# Contract

Every implementation runs the same contract test: empty carts, upsert per
product, update and remove, per-user scoping, idempotent clear, order
recording and the user requirement. The Postgres and Firestore runs are
skipped unless STOREFRONT_TEST_POSTGRES_DSN or FIRESTORE_EMULATOR_HOST is set.
*/
package remote
