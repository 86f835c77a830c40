package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workspacelabs/workspace-mcp/internal/auth"
	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/credentials"
	"github.com/workspacelabs/workspace-mcp/internal/google"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google account credentials",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthListCmd())
	cmd.AddCommand(newAuthRevokeCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		credentialsDir string
		port           int
		debugMode      bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize a Google account interactively",
		Long: `Start the OAuth consent flow: prints a URL to open in a browser, waits
for the callback on the local loopback port, and stores the resulting
credentials. The account email is determined from the Google userinfo
endpoint after consent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(debugMode)

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Resolve(config.Options{
				CredentialsDir: credentialsDir,
				Port:           port,
			})
			if err != nil {
				return fmt.Errorf("resolving configuration: %w", err)
			}
			if cfg.ClientID == "" || cfg.ClientSecret == "" {
				return fmt.Errorf("%s and %s must be set", config.ClientIDEnvVar, config.ClientSecretEnvVar)
			}

			store, err := credentials.NewStore(cfg.CredentialsDir)
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}

			flow := auth.NewFlow(google.OAuthConfig(cfg), store, cfg.Port,
				auth.WithFlowLogger(logger))
			authURL, done, err := flow.Begin(ctx)
			if err != nil {
				return fmt.Errorf("starting authorization flow: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to authorize access:\n\n  %s\n\nWaiting for the callback...\n", authURL)

			result := <-done
			if result.Err != nil {
				return fmt.Errorf("authorization failed: %w", result.Err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Authorized %s. Credentials stored in %s.\n",
				result.Record.Email, cfg.CredentialsDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&credentialsDir, "credentials-dir", "", "Directory holding credential records")
	cmd.Flags().IntVar(&port, "port", 0, "Local OAuth callback port")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	return cmd
}

func newAuthListCmd() *cobra.Command {
	var credentialsDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Google accounts with stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(false)

			cfg, err := config.Resolve(config.Options{CredentialsDir: credentialsDir})
			if err != nil {
				return fmt.Errorf("resolving configuration: %w", err)
			}

			store, err := credentials.NewStore(cfg.CredentialsDir)
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}

			accounts, err := store.List()
			if err != nil {
				return fmt.Errorf("listing accounts: %w", err)
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored accounts. Run 'workspace-mcp auth login' to add one.")
				return nil
			}
			for _, account := range accounts {
				fmt.Fprintln(cmd.OutOrStdout(), account)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&credentialsDir, "credentials-dir", "", "Directory holding credential records")
	return cmd
}

func newAuthRevokeCmd() *cobra.Command {
	var credentialsDir string

	cmd := &cobra.Command{
		Use:   "revoke <email>",
		Short: "Delete stored credentials for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(false)
			email := args[0]

			cfg, err := config.Resolve(config.Options{CredentialsDir: credentialsDir})
			if err != nil {
				return fmt.Errorf("resolving configuration: %w", err)
			}

			store, err := credentials.NewStore(cfg.CredentialsDir)
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}

			if err := store.Delete(email); err != nil {
				return fmt.Errorf("deleting credentials: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted stored credentials for %s.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&credentialsDir, "credentials-dir", "", "Directory holding credential records")
	return cmd
}
