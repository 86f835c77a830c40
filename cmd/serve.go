package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/workspacelabs/workspace-mcp/internal/config"
	"github.com/workspacelabs/workspace-mcp/internal/instrumentation"
	"github.com/workspacelabs/workspace-mcp/internal/logging"
	"github.com/workspacelabs/workspace-mcp/internal/server"
	"github.com/workspacelabs/workspace-mcp/internal/tools/auth_tools"
	"github.com/workspacelabs/workspace-mcp/internal/tools/docs_tools"
	"github.com/workspacelabs/workspace-mcp/internal/tools/gmail_tools"
	"github.com/workspacelabs/workspace-mcp/internal/tools/script_tools"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		credentialsDir string
		port           int
		yolo           bool
		singleUser     bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio to provide
Gmail, Google Docs, and Apps Script tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (email sending).

Configuration:
  The credentials directory is resolved from --credentials-dir, then
  WORKSPACE_MCP_CREDENTIALS_DIR, then GOOGLE_MCP_CREDENTIALS_DIR, then
  the built-in default. The server refuses to start when the directory
  cannot be created or written.

  The Google OAuth client comes from GOOGLE_OAUTH_CLIENT_ID and
  GOOGLE_OAUTH_CLIENT_SECRET. Without them the OAuth consent flow and
  token refresh will fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(credentialsDir, port, debugMode, yolo, singleUser, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&credentialsDir, "credentials-dir", "", "Directory holding credential records. Can also use WORKSPACE_MCP_CREDENTIALS_DIR env var.")
	cmd.Flags().IntVar(&port, "port", 0, fmt.Sprintf("Local OAuth callback port (default: %d). Can also use %s env var.", config.DefaultPort, config.PortEnvVar))
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (email sending). Default is read-only mode.")
	cmd.Flags().BoolVar(&singleUser, "single-user", false, "Fail startup when more than one stored account exists")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", fmt.Sprintf("Metrics server address (default: %s). Set %s=false to disable metrics.", instrumentation.DefaultMetricsAddr, instrumentation.EnvEnabled))

	return cmd
}

func runServe(credentialsDir string, port int, debugMode, yolo, singleUser bool, metricsAddr string) error {
	// stdout carries the MCP transport; logs go to stderr.
	logger := logging.Setup(debugMode)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Resolve(config.Options{
		CredentialsDir: credentialsDir,
		Port:           port,
		SingleUser:     singleUser,
	})
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}
	logger.Info("configuration resolved",
		slog.String(logging.KeyDir, cfg.CredentialsDir),
		slog.Int("port", cfg.Port))

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if metricsAddr != "" {
		instrConfig.MetricsAddr = metricsAddr
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("creating instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, cfg,
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()))
	if err != nil {
		return fmt.Errorf("creating server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		metricsServer, err := server.NewMetricsServer(instrConfig.MetricsAddr, provider, logger)
		if err != nil {
			return fmt.Errorf("creating metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("workspace-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		logger.Info("starting server in read-only mode")
	} else {
		logger.Info("starting server with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tool packages
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, sc)
			},
		},
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Docs",
			register: func() error {
				return docs_tools.RegisterDocsTools(mcpSrv, sc)
			},
		},
		{
			name: "Apps Script",
			register: func() error {
				return script_tools.RegisterScriptTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}
