/*
Package types defines the core data structures used throughout the storefront engine.

This package contains the cart, session, checkout and notification model shared by
every other package. Types carry no behaviour beyond small validation and lookup
helpers, so they can be passed freely between the cart store, the session handler,
the checkout coordinator and the persistence backends.

# Core Types

Cart:
  - CartLine: one product in the cart with its quantity
  - ProductSnapshot: product display fields captured when the line was created
  - CartMode: anonymous (device store) or authenticated (remote store)

Session:
  - Identity: the signed-in user, or the zero value for an anonymous visitor

Checkout:
  - CheckoutStep: idle, address, payment
  - CheckoutSession: the step plus captured address and payment selection
  - Address: shipping address with required-field helpers
  - PaymentMethod / PaymentDetails: payment selection and its extra fields
  - Order: the record written when checkout completes

Feedback:
  - Notification: the single visible user-facing message

# Invariants

  - A cart holds at most one CartLine per ProductID.
  - CartLine.Quantity is always at least 1; lines reaching 0 are deleted, never stored.
  - CartLine.RemoteID is set only for lines held by the remote backend.
  - CartMode is never stored on its own; it is derived from Identity via Identity.Mode.

Prices use github.com/shopspring/decimal. The zero decimal is a valid price, so a
missing price contributes nothing to a total.
*/
package types
