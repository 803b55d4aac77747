package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/client"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tagcube %s (API %s)\n", client.Version, client.DefaultAPIVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
