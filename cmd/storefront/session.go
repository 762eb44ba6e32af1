package main

import (
	"fmt"

	"github.com/printloft/storefront/pkg/engine"
	"github.com/printloft/storefront/pkg/types"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Sign in and out",
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login USER_ID",
	Short: "Sign in as USER_ID",
	Long: `Sign in as USER_ID. The cart switches to the user's remote cart;
any anonymous cart on this device is discarded, not merged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		return withEngine(cmd, func(e *engine.Engine) error {
			if !e.Cart.IsEmpty() && !e.Session.Authenticated() {
				fmt.Printf("Discarding anonymous cart with %d line(s)\n", e.Cart.Len())
			}
			if err := e.Session.SignIn(types.Identity{UserID: args[0], Email: email, DisplayName: name}); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			fmt.Printf("✓ Signed in as %s\n", args[0])
			printCart(e)
			return nil
		})
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to the device cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			if !e.Session.Authenticated() {
				fmt.Println("Not signed in")
				return nil
			}
			if err := e.Session.SignOut(); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			fmt.Println("✓ Signed out")
			printCart(e)
			return nil
		})
	},
}

var sessionWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			id := e.Session.Current()
			if id.IsAnonymous() {
				fmt.Println("anonymous")
				return nil
			}
			fmt.Printf("User ID: %s\n", id.UserID)
			if id.Email != "" {
				fmt.Printf("Email: %s\n", id.Email)
			}
			if id.DisplayName != "" {
				fmt.Printf("Name: %s\n", id.DisplayName)
			}
			return nil
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionWhoamiCmd)

	sessionLoginCmd.Flags().String("email", "", "Email address for order confirmations")
	sessionLoginCmd.Flags().String("name", "", "Display name")
}
