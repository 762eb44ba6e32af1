package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/printloft/storefront/pkg/engine"
	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the shopping cart",
}

var cartAddCmd = &cobra.Command{
	Use:   "add PRODUCT_ID",
	Short: "Add one unit of a product to the cart",
	Long: `Add one unit of a product to the cart. Adding a product that is
already in the cart increases its quantity.

Examples:
  storefront cart add vase-01 --name "Spiral Vase" --price 500
  storefront cart add dragon-07 --name "Dragon Figurine" --price 1299.99 --emoji 🐉`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		priceStr, _ := cmd.Flags().GetString("price")
		image, _ := cmd.Flags().GetString("image")
		emoji, _ := cmd.Flags().GetString("emoji")

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return fmt.Errorf("invalid price %q: %v", priceStr, err)
		}
		if price.IsNegative() {
			return fmt.Errorf("price must not be negative")
		}

		return withEngine(cmd, func(e *engine.Engine) error {
			return e.Cart.Add(cmd.Context(), args[0], types.ProductSnapshot{
				Name:  name,
				Price: price,
				Image: image,
				Emoji: emoji,
			})
		})
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update LINE_ID DELTA",
	Short: "Change a line's quantity by DELTA",
	Long: `Change a line's quantity by DELTA. A resulting quantity of zero or
less removes the line.

Examples:
  storefront cart update 1760000000000000000 2
  storefront cart update 1760000000000000000 -- -1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %v", args[1], err)
		}
		return withEngine(cmd, func(e *engine.Engine) error {
			return e.Cart.UpdateQuantity(cmd.Context(), args[0], delta)
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove LINE_ID",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			return e.Cart.Remove(cmd.Context(), args[0])
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			return e.Cart.Clear(cmd.Context())
		})
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			printCart(e)
			return nil
		})
	},
}

func init() {
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartShowCmd)

	cartAddCmd.Flags().String("name", "", "Product name shown in the cart")
	cartAddCmd.Flags().String("price", "0", "Unit price")
	cartAddCmd.Flags().String("image", "", "Product image URL")
	cartAddCmd.Flags().String("emoji", "", "Product emoji")
}

// withEngine runs fn against a started engine and prints the resulting notification
func withEngine(cmd *cobra.Command, fn func(e *engine.Engine) error) error {
	e, stop, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer stop()

	err = fn(e)
	printNotification(e)
	return err
}

func printCart(e *engine.Engine) {
	lines := e.Cart.Lines()
	who := "anonymous"
	if id := e.Session.Current(); !id.IsAnonymous() {
		who = id.UserID
	}
	fmt.Printf("Cart (%s, %s)\n", e.Cart.Mode(), who)

	if len(lines) == 0 {
		fmt.Println("  Your cart is empty")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINE ID\tPRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		name := l.Product.Name
		if l.Product.Emoji != "" {
			name = l.Product.Emoji + " " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.LineID, l.ProductID, name, l.Quantity,
			l.Product.Price.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	w.Flush()
	fmt.Printf("Total: %s\n", e.Cart.Total().StringFixed(2))
}
