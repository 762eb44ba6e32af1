package checkout

import (
	"context"
	"errors"

	"github.com/printloft/storefront/pkg/cart"
)

var (
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrIncompleteAddress = errors.New("checkout: address is incomplete")
	ErrNoPaymentMethod   = errors.New("checkout: no payment method selected")
	ErrIncompletePayment = errors.New("checkout: payment details are incomplete")
	ErrUnsupportedMethod = errors.New("checkout: payment method not supported")
	ErrWrongStep         = errors.New("checkout: not allowed at this step")
	ErrInProgress        = errors.New("checkout: order is already being placed")
	ErrOrderFailed       = errors.New("checkout: order could not be placed")
)

// Kind classifies err for metric labels and CLI exit reporting
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"

	case errors.Is(err, ErrIncompleteAddress):
		return "incomplete_address"

	case errors.Is(err, ErrNoPaymentMethod):
		return "no_payment_method"

	case errors.Is(err, ErrIncompletePayment):
		return "incomplete_payment"

	case errors.Is(err, ErrUnsupportedMethod):
		return "unsupported_method"

	case errors.Is(err, ErrWrongStep):
		return "wrong_step"

	case errors.Is(err, ErrInProgress):
		return "in_progress"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	case errors.Is(err, ErrOrderFailed), errors.Is(err, cart.ErrBackend):
		return "backend"

	default:
		return "internal"
	}
}

// IsValidation reports whether err was caught before any backend call
func IsValidation(err error) bool {
	switch Kind(err) {
	case "empty_cart", "incomplete_address", "no_payment_method",
		"incomplete_payment", "unsupported_method", "wrong_step":
		return true
	default:
		return false
	}
}
