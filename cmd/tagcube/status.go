package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status SCAN_ID",
	Short: "Show the current state of a scan",
	Long: `Fetch a scan from the REST API and print it. When the scan was launched
from this machine the local launch record is shown as well.

Use --json to print the raw scan resource.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scanID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || scanID <= 0 {
			return &usageError{fmt.Errorf("invalid scan id %q", args[0])}
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := newClient()
		if err != nil {
			return err
		}

		scan, err := c.GetScan(cmd.Context(), scanID)
		if err != nil {
			return fmt.Errorf("fetching scan #%d: %w", scanID, err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			data, err := json.MarshalIndent(scan.Raw, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "[+] Scan #%d (%s)\n", scan.ID, scan.Href)
		printField(out, "Verification", scan.VerificationHref)
		printField(out, "Profile", scan.ProfileHref)
		printField(out, "Start time", scan.StartTime)
		printField(out, "Paths", strings.Join(scan.PathList, ", "))
		for _, key := range []string{"status", "state", "progress", "finish_time"} {
			if v := scan.Raw.String(key); v != "" {
				printField(out, key, v)
			}
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			log.Debug("history database unavailable", "error", err)
			return nil
		}
		defer store.Close()

		rec, err := store.FindByScanID(scanID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil
		case err != nil:
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] Warning: could not read history: %v\n", err)
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[*] Launched from here on %s\n", rec.LaunchedAt.UTC().Format("2006-01-02 15:04:05"))
		printField(out, "Target", rec.TargetURL)
		printField(out, "Profile", rec.Profile)
		printField(out, "Notify", rec.Notify)
		printField(out, "Batch", rec.BatchID)

		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the raw scan resource as JSON")
	rootCmd.AddCommand(statusCmd)
}
