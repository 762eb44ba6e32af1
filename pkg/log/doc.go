/*
Package log provides structured logging for the storefront engine using zerolog.

The package wraps a single global zerolog.Logger. Call Init once at startup; until
then Logger discards everything, which keeps library use and tests quiet.

Component loggers add a fixed field to every entry:

	cartLog := log.WithComponent("cart")
	cartLog.Info().Str("product_id", "p-1").Msg("Line added")

	userLog := log.WithUserID(identity.UserID)
	userLog.Warn().Err(err).Msg("Remote cart reload failed")

Levels:
  - debug: per-line cart operations and broker events
  - info: session transitions, completed orders
  - warn: recoverable backend failures surfaced to the visitor
  - error: failures that leave a component unhealthy

Never log payment details (card number, CVV, UPI ID).
*/
package log
