package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/batch"
	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Launch scans for every origin listed in a URL file",
	Long: `Read one URL per line from --urls-file and launch one scan per
(protocol, domain, port). URLs sharing an origin are merged into a single scan
whose crawler starts from all of their paths.

Blank lines and lines starting with # are ignored. Lines that are not http or
https URLs are skipped with a warning.

By default the batch stops at the first scan that fails to launch. With
--continue-on-error every origin is attempted and failures are reported at the
end; --concurrency then bounds how many launches run at once.

Examples:
  tagcube batch --urls-file urls.txt
  tagcube batch --urls-file urls.txt --scan-profile fast_scan --email-notify ops@example.com
  tagcube batch --urls-file urls.txt --continue-on-error --concurrency 4
  tagcube batch --urls-file urls.txt --notify-webhook https://hooks.example.com/tagcube`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// ── 1. Read all flags ──────────────────────────────────────────────────
		urlsFile, _ := cmd.Flags().GetString("urls-file")
		emailNotify, _ := cmd.Flags().GetString("email-notify")
		scanProfile, _ := cmd.Flags().GetString("scan-profile")
		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		webhookURL, _ := cmd.Flags().GetString("notify-webhook")

		if emailNotify != "" {
			if err := validateEmail(emailNotify); err != nil {
				return &usageError{fmt.Errorf("invalid --email-notify: %w", err)}
			}
		}
		if scanProfile == "" {
			scanProfile = cfg.ScanProfile
		}
		if !cmd.Flags().Changed("continue-on-error") {
			continueOnError = cfg.Batch.ContinueOnError
		}
		if !cmd.Flags().Changed("concurrency") {
			concurrency = cfg.Batch.Concurrency
		}
		if concurrency < 1 {
			return &usageError{fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)}
		}

		// ── 2. Group URLs ─────────────────────────────────────────────────────
		f, err := os.Open(urlsFile)
		if err != nil {
			return &usageError{fmt.Errorf("opening urls file: %w", err)}
		}
		plan, err := batch.GroupURLs(f, log)
		f.Close()
		if err != nil {
			return err
		}
		for _, skipped := range plan.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] Skipping %s %s: %s\n", urlsFile, skipped.Error(), skipped.Text)
		}
		if len(plan.Groups) == 0 {
			return fmt.Errorf("%s: %w", urlsFile, batch.ErrNoScans)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[*] %d scan(s) to launch from %s\n", len(plan.Groups), urlsFile)

		// ── 3. Authenticate ───────────────────────────────────────────────────
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := requireValidCredentials(cmd.Context(), c); err != nil {
			return err
		}

		// ── 4. Launch ─────────────────────────────────────────────────────────
		var records []*models.LaunchRecord
		runCfg := batch.RunConfig{
			EmailNotify:     emailNotify,
			ScanProfile:     scanProfile,
			ContinueOnError: continueOnError,
			Concurrency:     concurrency,
			Scope:           scopeFromFlags(cmd),
			Logger:          log,
			OnLaunch: func(g *batch.Group, scan *models.Scan) {
				fmt.Fprintf(cmd.OutOrStdout(), "[+] Launched scan #%d to %s\n", scan.ID, g.RootURL())
				rec := models.NewLaunchRecord(scan, g.RootURL(), g.Domain, scanProfile, g.Paths())
				rec.Notify = emailNotify
				records = append(records, rec)
			},
			OnFailure: func(g *batch.Group, err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[!] Failed to launch scan to %s: %v\n", g.RootURL(), err)
			},
		}

		summary, runErr := batch.Run(cmd.Context(), c, plan, runCfg)

		// ── 5. Local history and webhook (non-fatal) ──────────────────────────
		if summary != nil {
			for _, rec := range records {
				rec.BatchID = summary.BatchID.String()
			}
			recordLaunches(cmd, records...)

			fmt.Fprintf(cmd.OutOrStdout(), "[*] Batch %s: %d launched, %d failed, %d line(s) skipped (%s)\n",
				summary.BatchID, summary.Launched, summary.Failed, len(plan.Skipped),
				summary.Elapsed.Round(time.Millisecond))

			if webhookURL != "" {
				notifier := batch.Notifier{WebhookURL: webhookURL, HTTPClient: client.DefaultHTTPClient(cfg.Timeout)}
				if err := notifier.Send(cmd.Context(), summary, len(plan.Skipped)); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "[!] Warning: webhook notification failed: %v\n", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[+] Batch summary sent to %s\n", webhookURL)
				}
			}
		}

		return runErr
	},
}

func init() {
	batchCmd.Flags().String("urls-file", "", "file with one URL per line (required)")
	batchCmd.Flags().String("email-notify", "", "email address notified when each scan finishes (default: the API user)")
	batchCmd.Flags().String("scan-profile", "", "scan profile name (default from config, full_audit)")
	batchCmd.Flags().Bool("continue-on-error", false, "keep launching the remaining scans when one fails")
	batchCmd.Flags().Int("concurrency", 1, "parallel launches when --continue-on-error is set")
	batchCmd.Flags().String("notify-webhook", "", "HTTP webhook URL to POST a batch summary to")
	batchCmd.Flags().String("scope-domains", "", "comma-separated allowed domain patterns (e.g. example.com,*.example.com)")
	batchCmd.Flags().String("scope-cidrs", "", "comma-separated allowed CIDR ranges for IP targets")

	batchCmd.MarkFlagRequired("urls-file")

	rootCmd.AddCommand(batchCmd)
}
