package main

import (
	"fmt"

	"github.com/printloft/storefront/pkg/checkout"
	"github.com/printloft/storefront/pkg/engine"
	"github.com/printloft/storefront/pkg/types"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart contents",
	Long: `Place an order for everything in the cart. The address is checked
before payment, and payment details before the order is placed.

Examples:
  storefront checkout --name "Asha Rao" --phone 9800000000 --line1 "12 MG Road" \
    --city Bengaluru --state Karnataka --postal-code 560001 --payment cod

  storefront checkout ... --payment upi --upi-id asha@upi`,
	RunE: runCheckout,
}

func init() {
	checkoutCmd.Flags().String("name", "", "Recipient name")
	checkoutCmd.Flags().String("phone", "", "Recipient phone")
	checkoutCmd.Flags().String("line1", "", "Address line 1")
	checkoutCmd.Flags().String("line2", "", "Address line 2")
	checkoutCmd.Flags().String("city", "", "City")
	checkoutCmd.Flags().String("state", "", "State")
	checkoutCmd.Flags().String("postal-code", "", "6-digit postal code")
	checkoutCmd.Flags().String("payment", "", "Payment method: cod, card, upi")
	checkoutCmd.Flags().String("card-number", "", "Card number (card)")
	checkoutCmd.Flags().String("expiry", "", "Card expiry MM/YY (card)")
	checkoutCmd.Flags().String("cvv", "", "Card CVV (card)")
	checkoutCmd.Flags().String("upi-id", "", "UPI ID (upi)")
}

func runCheckout(cmd *cobra.Command, args []string) error {
	flag := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}

	addr := types.Address{
		Name:       flag("name"),
		Phone:      flag("phone"),
		Line1:      flag("line1"),
		Line2:      flag("line2"),
		City:       flag("city"),
		State:      flag("state"),
		PostalCode: flag("postal-code"),
	}
	method := types.PaymentMethod(flag("payment"))
	details := types.PaymentDetails{
		CardNumber: flag("card-number"),
		Expiry:     flag("expiry"),
		CVV:        flag("cvv"),
		UPIID:      flag("upi-id"),
	}

	if addr.PostalCode != "" && !addr.WellFormedPostalCode() {
		return fmt.Errorf("postal code must be 6 digits")
	}

	return withEngine(cmd, func(e *engine.Engine) error {
		co := e.Checkout
		if err := co.Start(); err != nil {
			return err
		}
		defer func() {
			if co.Step() != types.StepIdle {
				co.Cancel()
			}
		}()

		if err := co.SubmitAddress(addr); err != nil {
			return err
		}
		fmt.Println("✓ Address accepted")

		order, err := co.SubmitPayment(cmd.Context(), method, details)
		if err != nil {
			if checkout.IsValidation(err) {
				return err
			}
			return fmt.Errorf("%w (kind: %s)", err, checkout.Kind(err))
		}

		fmt.Printf("✓ Order %s placed\n", order.ID)
		fmt.Printf("  Items: %d\n", len(order.Lines))
		fmt.Printf("  Total: %s\n", order.Total.StringFixed(2))
		fmt.Printf("  Payment: %s\n", order.Method)
		return nil
	})
}
