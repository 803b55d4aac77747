package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hakim/tagcube/internal/config"
)

var (
	initForce bool
	initHome  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default .tagcube configuration file",
	Long: `Creates a default configuration file (.tagcube) in the current directory,
or in the home directory with --home. Fill in the credentials section before
running other commands, or use the TAGCUBE_EMAIL and TAGCUBE_API_KEY
environment variables instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.FileName
		if initHome {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("finding home directory: %w", err)
			}
			configPath = filepath.Join(home, config.FileName)
		}

		if err := config.WriteDefault(configPath, initForce); err != nil {
			return &usageError{fmt.Errorf("failed to create config file (use --force to overwrite): %w", err)}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "[+] Created %s with default configuration\n", configPath)
		fmt.Fprintln(out, "    Add your email and API key under credentials, then run 'tagcube auth'.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initHome, "home", false, "write ~/.tagcube instead of ./.tagcube")
	rootCmd.AddCommand(initCmd)
}
