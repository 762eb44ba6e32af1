/*
Package storage provides the device-local key-value store used by the anonymous cart.

The KV interface mirrors a browser's local storage: string keys, string values,
Get/Set/Remove. SessionStore persists the signed-in identity so a CLI run can
pick up where the previous one stopped.

# Architecture

	┌──────────────── <dataDir>/storefront.db ─────────────────┐
	│                                                          │
	│  local    CartKey → JSON array of cart lines             │
	│  session  identity → JSON types.Identity                 │
	│  carts    {userId}/{lineId} (remote.BoltBackend)         │
	│  orders   {userId}/{orderId} (remote.BoltBackend)        │
	│                                                          │
	└──────────────────────────────────────────────────────────┘

BoltStore owns the bbolt file. The bolt remote backend borrows the same
handle through DB, because bbolt holds an exclusive file lock and a second
Open of the same path would block.

# Implementations

BoltStore:
  - File <dataDir>/storefront.db, created with mode 0600
  - Buckets created on open
  - Reads copy values out of the transaction
  - Saving an anonymous identity deletes the stored one

MemoryStore:
  - Process memory, for tests and single-run demos
  - FailWith makes every operation on a key fail until cleared

# Anonymous cart

The anonymous cart is stored as one JSON document under CartKey. The store is
shared by every anonymous session on the device, which is why the session
handler removes CartKey when a user signs in. A document that cannot be
decoded is discarded by the cart store and treated as an empty cart.

# Usage

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	_ = store.Set(storage.CartKey, "[]")
	raw, ok, err := store.Get(storage.CartKey)

# Troubleshooting

"failed to open database" with a timeout or lock error usually means another
storefront process holds the file. Only one process may use a data directory
at a time.
*/
package storage
