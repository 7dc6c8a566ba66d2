package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/atlas/internal/auth"
	"github.com/danielolaszy/atlas/internal/config"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/internal/mcpserver"
)

// serveCmd runs the MCP server on the configured transport.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over the Model Context Protocol",
	Long: `Serve the Jira and Confluence tools over the Model Context Protocol.

With the stdio transport every request acts as the configured identity with
the configured credentials. With the http transport every request must carry
its caller's own Atlassian access token as "Authorization: Bearer <token>";
requests without one are refused. The identity header (MCP_IDENTITY_HEADER)
only labels the caller in logs. The configured credentials are never used
over http.

Example:
  atlas serve
  atlas serve --transport http --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("transport") {
			cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("addr") {
			cfg.MCP.HTTPAddr, _ = cmd.Flags().GetString("addr")
		}

		tokens, err := serveProvider(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logging.Info("starting mcp server",
			"transport", cfg.MCP.Transport,
			"version", Version)

		s := mcpserver.NewServer(newToolset(cfg, tokens), Version)
		return mcpserver.Serve(ctx, s, cfg.MCP, cfg.Atlassian.Identity)
	},
}

// serveProvider picks where tokens come from for the transport. Over http
// only the token presented with each request is used.
func serveProvider(cfg *config.Config) (auth.Provider, error) {
	if cfg.MCP.Transport == "http" {
		return auth.RequestToken{}, nil
	}
	if err := config.ValidateAuthConfig(cfg); err != nil {
		return nil, err
	}
	return newProvider(cfg), nil
}

func init() {
	serveCmd.Flags().String("transport", "", "Transport to serve on: stdio or http (defaults to MCP_TRANSPORT)")
	serveCmd.Flags().String("addr", "", "Listen address for the http transport (defaults to MCP_HTTP_ADDR)")
}
