package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Test the configured REST API credentials",
	Long: `Authenticate against the REST API with the configured credentials and
print the email address of the account they belong to.

No target URL or notification settings are needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		if err := requireValidCredentials(cmd.Context(), c); err != nil {
			return err
		}

		user, err := c.CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching current user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[+] Successfully authenticated using %s's REST API key\n", user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
