/*
Package session holds the signed-in identity and moves the cart between its
local and remote backends when that identity changes.

A Session is the process-wide identity observable. A Handler subscribes to it
and applies each new user ID exactly once.

# Transitions

	               SignIn                         SignIn(other)
	  anonymous ───────────▶ signed in (alice) ─────────────────▶ signed in (bob)
	      ▲                        │                                   │
	      └──────── SignOut ───────┴──────────────── SignOut ──────────┘

  - initial: the first identity applied by Attach. An anonymous identity loads
    the device cart; a restored sign-in loads the user's remote cart. Neither
    touches the device copy nor emits a session event.
  - login (anonymous to signed in): the cart switches to the remote backend,
    then the device cart is removed and the remote cart loaded concurrently.
    The anonymous lines are discarded, not merged.
  - logout (signed in to anonymous): the cart reloads from the device copy
  - switch (one user to another): the new user's remote cart is loaded

Profile changes that keep the user ID (a new display name, say) reach
listeners but never a Handler transition, and nothing is reloaded.

# Failure handling

The backend switch always happens, even when the reload fails. The cart then
shows empty rather than another identity's lines, and the failure has already
been notified by the cart store. A failure to remove the device cart on login
is notified separately; both errors are returned joined.

# Ordering

Listeners run synchronously, in subscription order, on the goroutine calling
Set. The identity is persisted after every listener has returned. Handler
transitions are serialized by the handler's own mutex.

# Usage

	sess := session.New(session.WithStore(boltStore))
	if err := sess.Restore(); err != nil {
		return err
	}

	h := session.NewHandler(sess, cartStore, boltStore, remoteBackend,
		session.WithNotifier(notifier),
		session.WithPublisher(broker),
	)
	if err := h.Attach(ctx); err != nil {
		return err
	}
	defer h.Detach()

	_ = sess.SignIn(types.Identity{UserID: "alice"})

# Monitoring

storefront_session_transitions_total counts transitions by direction
(initial, login, logout, switch). Login, logout and switch also publish
session.signed_in, session.signed_out and session.switched.
*/
package session
