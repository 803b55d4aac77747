package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show scans launched from this machine",
	Long: `Display a table of scans launched by this client, newest first.

The history is local: it lists launches recorded in the configured database
(db_path), not every scan on the account. Use --domain to filter by target
domain and --limit to cap the number of rows (default: 10, 0 for all).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		// Step 2: Open bbolt store
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		// Step 3: List launches (newest first)
		launches, err := store.ListLaunches(domain)
		if err != nil {
			return fmt.Errorf("listing launches: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(launches) == 0 {
			if domain != "" {
				fmt.Fprintf(out, "No scan history found for %s\n", domain)
			} else {
				fmt.Fprintln(out, "No scan history found")
			}
			return nil
		}

		// Step 4: Apply limit
		total := len(launches)
		if limit > 0 && len(launches) > limit {
			launches = launches[:limit]
		}

		// Step 5: Print formatted table
		const separator = "────────────────────────────────────────────────────────────────────────"

		title := "Scan History"
		if domain != "" {
			title += " for " + domain
		}
		fmt.Fprintf(out, "\n%s\n", title)
		fmt.Fprintln(out, separator)
		fmt.Fprintf(out, "  %-3s  %-8s  %-17s  %-12s  %-30s  %s\n", "#", "Scan", "Launched", "Profile", "Target", "Paths")
		fmt.Fprintln(out, separator)

		for i, l := range launches {
			fmt.Fprintf(out, "  %-3d  %-8s  %-17s  %-12s  %-30s  %s\n",
				i+1,
				fmt.Sprintf("#%d", l.ScanID),
				l.LaunchedAt.UTC().Format("2006-01-02 15:04"),
				l.Profile,
				l.TargetURL,
				formatPaths(l.Paths))
		}

		fmt.Fprintln(out, separator)
		fmt.Fprintf(out, "Total: %d launch(es)\n\n", total)

		return nil
	},
}

// formatPaths joins paths for table display, "-" when there are none.
func formatPaths(paths []string) string {
	if len(paths) == 0 {
		return "-"
	}
	return strings.Join(paths, ", ")
}

// printField prints an indented "label: value" line, skipping empty values.
func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "    %-13s %s\n", label+":", value)
}

func init() {
	historyCmd.Flags().StringP("domain", "d", "", "only show launches for this domain")
	historyCmd.Flags().Int("limit", 10, "maximum number of launches to display")
	rootCmd.AddCommand(historyCmd)
}
