/*
Package cart holds the storefront's cart state and the rules for changing it.

A Store owns the in-memory cart lines and dispatches every mutation to one of
two backends:

  - anonymous: the cart lives on the device (storage.KV under the "cart" key)
    and is written through synchronously on each change
  - authenticated: the cart lives in the remote backend, scoped to the user,
    and is re-read in full after every write

Exactly one backend is authoritative at a time. Switching backends empties
the in-memory cart and discards the results of remote calls still in flight,
so lines never leak from one mode into the other.

# Invariants

  - at most one line per product ID
  - every line has a quantity of at least 1; reducing to zero removes it
  - a failed operation leaves the in-memory lines unchanged and notifies
    the user before the error is returned
  - operations on unknown line IDs are silent no-ops

# Usage

	store := cart.New(kv, notifier, cart.WithPublisher(broker))
	if err := store.Reload(ctx); err != nil {
		return err
	}
	store.Add(ctx, "vase-01", types.ProductSnapshot{Name: "Spiral Vase", Price: price})
	fmt.Println(store.Total())
*/
package cart
