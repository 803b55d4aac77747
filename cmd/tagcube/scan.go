package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/models"
	"github.com/hakim/tagcube/internal/storage"
	"github.com/hakim/tagcube/internal/target"
)

var scanCmd = &cobra.Command{
	Use:   "scan URL",
	Short: "Launch a web application scan",
	Long: `Launch a web application security scan against URL.

The domain, its verification for the URL's port and protocol, and the email
notification are looked up on the service and created when missing. The scan
is only launched when the latest verification succeeded.

Examples:
  tagcube scan https://www.example.com/
  tagcube scan https://www.example.com/ --email-notify ops@example.com
  tagcube scan http://www.example.com:8080/ --scan-profile fast_scan --path-file paths.txt
  tagcube scan https://www.example.com/ --scope-domains "example.com,*.example.com"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// ── 1. Read all flags ──────────────────────────────────────────────────
		targetURL := args[0]
		emailNotify, _ := cmd.Flags().GetString("email-notify")
		scanProfile, _ := cmd.Flags().GetString("scan-profile")
		pathFile, _ := cmd.Flags().GetString("path-file")

		if !target.IsHTTPURL(targetURL) {
			return &usageError{fmt.Errorf("target URL %q must start with http:// or https://", targetURL)}
		}
		if emailNotify != "" {
			if err := validateEmail(emailNotify); err != nil {
				return &usageError{fmt.Errorf("invalid --email-notify: %w", err)}
			}
		}
		if scanProfile == "" {
			scanProfile = cfg.ScanProfile
		}

		// ── 2. Bootstrap paths ────────────────────────────────────────────────
		paths := target.DefaultPaths()
		if pathFile != "" {
			f, err := os.Open(pathFile)
			if err != nil {
				return &usageError{fmt.Errorf("opening path file: %w", err)}
			}
			paths, err = target.ReadPaths(f)
			f.Close()
			if err != nil {
				return &usageError{fmt.Errorf("reading path file %s: %w", pathFile, err)}
			}
		}

		// ── 3. Scope validation ───────────────────────────────────────────────
		tgt, err := target.Parse(targetURL)
		if err != nil {
			return &usageError{err}
		}
		if sc := scopeFromFlags(cmd); sc != nil {
			if err := sc.ValidateHost(tgt.Domain); err != nil {
				return fmt.Errorf("scope check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[*] Scope validated: %s is in scope\n", tgt.Domain)
		}

		// ── 4. Authenticate ───────────────────────────────────────────────────
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := requireValidCredentials(cmd.Context(), c); err != nil {
			return err
		}

		// ── 5. Launch ─────────────────────────────────────────────────────────
		log.Debug("starting web application scan", "target", targetURL, "profile", scanProfile)
		scan, err := c.QuickScan(cmd.Context(), client.ScanRequest{
			TargetURL:   targetURL,
			EmailNotify: emailNotify,
			ScanProfile: scanProfile,
			PathList:    paths,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[+] Launched scan with id #%d\n", scan.ID)

		// ── 6. Local history (non-fatal) ──────────────────────────────────────
		rec := models.NewLaunchRecord(scan, targetURL, tgt.Domain, scanProfile, paths)
		rec.Notify = emailNotify
		recordLaunches(cmd, rec)

		return nil
	},
}

func init() {
	scanCmd.Flags().String("email-notify", "", "email address notified when the scan finishes (default: the API user)")
	scanCmd.Flags().String("scan-profile", "", "scan profile name (default from config, full_audit)")
	scanCmd.Flags().String("path-file", "", "file with one URL path per line used to bootstrap the crawler (default /)")
	scanCmd.Flags().String("scope-domains", "", "comma-separated allowed domain patterns (e.g. example.com,*.example.com)")
	scanCmd.Flags().String("scope-cidrs", "", "comma-separated allowed CIDR ranges for IP targets")

	rootCmd.AddCommand(scanCmd)
}

// recordLaunches stores launch records in the local history database.
// Failures are reported as warnings; the scans have already started.
func recordLaunches(cmd *cobra.Command, recs ...*models.LaunchRecord) {
	if len(recs) == 0 {
		return
	}
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "[!] Warning: could not open history database: %v\n", err)
		return
	}
	defer store.Close()

	for _, rec := range recs {
		if err := store.SaveLaunch(rec); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] Warning: could not record scan #%d: %v\n", rec.ScanID, err)
		}
	}
}
