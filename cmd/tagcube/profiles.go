package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the scan profiles available to the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		profiles, err := c.ListScanProfiles(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing scan profiles: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(profiles) == 0 {
			fmt.Fprintln(out, "No scan profiles found")
			return nil
		}

		sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })

		fmt.Fprintf(out, "  %-6s  %s\n", "ID", "Name")
		for _, p := range profiles {
			marker := ""
			if p.Name == cfg.ScanProfile {
				marker = "  (default)"
			}
			fmt.Fprintf(out, "  %-6d  %s%s\n", p.ID, p.Name, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
