/*
Package checkout sequences address capture, payment selection and order
placement over the cart store.

# State machine

	Idle            --Start-->          AddressCapture
	AddressCapture  --SubmitAddress-->  PaymentCapture
	PaymentCapture  --SubmitPayment-->  Idle (order placed)
	PaymentCapture  --Start-->          AddressCapture
	any step        --Cancel-->         Idle

A Coordinator owns one CheckoutSession:

  - Start requires a non-empty cart. Calling it mid-checkout starts over.
  - SubmitAddress trims every field and requires name, phone, line 1, city,
    state and postal code.
  - SubmitPayment requires a supported method with its extra fields (card
    number, expiry and CVV for cards; a UPI ID for UPI) and then places the
    order.
  - Complete retries placement with the accepted selection after a failure.

Every rejection notifies the visitor with a specific message and returns an
error wrapping one of the Err values. IsValidation separates rejected input
from backend failures; Kind maps any error to a short metric label.

# Placing an order

  1. Build the order from the current cart lines and total
  2. Record it with the OrderRecorder when the visitor is signed in
  3. Clear the cart through the cart store
  4. Notify "Order placed successfully!"
  5. Send the confirmation mail, if a Mailer is configured and the visitor
     has an email address
  6. Return to Idle

A failure in step 2 or 3 leaves the coordinator at PaymentCapture so the
visitor can retry. An order recorded before a failed clear is remembered, and
the retry only clears, so one checkout records at most one order. Mail
failures are logged and never fail the checkout.

Concurrent submissions are rejected with ErrInProgress while placement runs.

# Usage

	co := checkout.New(cartStore, sess, notifier,
		checkout.WithOrderRecorder(remoteStore),
		checkout.WithMailer(orderMailer),
		checkout.WithPublisher(broker),
	)

	if err := co.Start(); err != nil {
		return err
	}
	if err := co.SubmitAddress(addr); err != nil {
		return err
	}
	order, err := co.SubmitPayment(ctx, types.PaymentCOD, types.PaymentDetails{})
*/
package checkout
