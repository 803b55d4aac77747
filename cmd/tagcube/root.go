package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/config"
	"github.com/hakim/tagcube/internal/logger"
	"github.com/hakim/tagcube/internal/scope"
)

var (
	cfgFile    string
	verbose    bool
	flagEmail  string
	flagAPIKey string
	flagAPIURL string
	cfg        *config.Config
	log        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tagcube",
	Short: "Launch TagCube web application security scans",
	Long: `tagcube is a command line client for the TagCube REST API.

It registers the target domain, proves ownership through a verification,
makes sure an email notification exists and launches the scan, reusing any
resource that already exists on the service.

Credentials are read from --tagcube-email/--tagcube-api-key, then from the
TAGCUBE_EMAIL and TAGCUBE_API_KEY environment variables, then from the
credentials section of .tagcube (current directory, then home directory).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New(verbose, cmd.ErrOrStderr())

		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":       true,
			"help":       true,
			"version":    true,
			"completion": true,
		}
		if skipConfig[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return &usageError{fmt.Errorf("failed to load config: %w", err)}
		}
		if cfg.File != "" {
			log.Debug("loaded config", "file", cfg.File)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default .tagcube, then ~/.tagcube)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagEmail, "tagcube-email", "", "email address used to authenticate against the REST API")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "tagcube-api-key", "", "API key used to authenticate against the REST API")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "REST API root URL (overrides ROOT_URL and root_url)")

	rootCmd.Version = client.Version
}

// Execute runs the root command. Interrupts cancel in-flight API calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// newClient builds an API client from the resolved credentials and config.
func newClient() (*client.Client, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	creds, err := cfg.ResolveCredentials(flagEmail, flagAPIKey)
	if err != nil {
		if errors.Is(err, config.ErrNoCredentials) {
			return nil, err
		}
		return nil, &usageError{err}
	}
	if err := validateEmail(creds.Email); err != nil {
		return nil, &usageError{fmt.Errorf("invalid TagCube email (%s): %w", creds.Source, err)}
	}
	log.Debug("using credentials", "email", creds.Email, "source", creds.Source)

	rootURL := cfg.RootURL
	if flagAPIURL != "" {
		rootURL = flagAPIURL
	}

	return client.New(client.Config{
		Email:      creds.Email,
		APIKey:     creds.APIKey,
		RootURL:    rootURL,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.Timeout,
		Verbose:    verbose,
	}, client.WithLogger(log))
}

// requireValidCredentials fails with client.ErrInvalidCredentials when the
// API rejects the configured credentials.
func requireValidCredentials(ctx context.Context, c *client.Client) error {
	ok, err := c.TestAuthCredentials(ctx)
	if err != nil {
		return fmt.Errorf("testing credentials: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w for %s", client.ErrInvalidCredentials, c.Email())
	}
	log.Debug("authentication credentials are valid")
	return nil
}

// validateEmail accepts a bare RFC 5322 address, without display name.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return fmt.Errorf("%q is not a bare email address", email)
	}
	return nil
}

// scopeFromFlags builds a scope allow-list from --scope-domains and
// --scope-cidrs. The returned config is nil when neither flag is set.
func scopeFromFlags(cmd *cobra.Command) *scope.Config {
	domains, _ := cmd.Flags().GetString("scope-domains")
	cidrs, _ := cmd.Flags().GetString("scope-cidrs")
	sc := &scope.Config{
		AllowedDomains: splitCSV(domains),
		AllowedCIDRs:   splitCSV(cidrs),
	}
	if sc.Empty() {
		return nil
	}
	return sc
}

// splitCSV splits a comma-separated string into a trimmed, non-empty slice.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
