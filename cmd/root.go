// Package cmd provides the command-line interface for atlas.
package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/atlas/internal/atlassian"
	"github.com/danielolaszy/atlas/internal/auth"
	"github.com/danielolaszy/atlas/internal/config"
	"github.com/danielolaszy/atlas/internal/logging"
	"github.com/danielolaszy/atlas/internal/summary"
	"github.com/danielolaszy/atlas/internal/tools"
)

// Version is reported to MCP clients and in the startup log.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas exposes Jira and Confluence as agent tools",
	Long: `Atlas is a set of Jira and Confluence operations for AI agents.

Run "atlas serve" to expose them over the Model Context Protocol, or call
them directly from the shell with the issue and confluence commands. Every
call acts as one identity, using that identity's Atlassian OAuth token.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("identity", "i", "", "Identity to act as (defaults to ATLASSIAN_IDENTITY)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Optional config file (yaml, json, toml, env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(confluenceCmd)
	rootCmd.AddCommand(resourcesCmd)
}

// runtime is what every command needs once configuration is loaded.
type runtime struct {
	config   *config.Config
	identity string
	toolset  *tools.Toolset
}

// loadConfig reads configuration and applies the --identity override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	identity, err := cmd.Flags().GetString("identity")
	if err != nil {
		return nil, err
	}
	if identity != "" {
		cfg.Atlassian.Identity = identity
	}

	logging.Debug("configuration loaded",
		"api_url", cfg.Atlassian.APIURL,
		"identity", logging.MaskSensitive(cfg.Atlassian.Identity),
		"access_token", logging.MaskSensitive(cfg.Atlassian.AccessToken),
		"refresh_flow", cfg.HasRefreshFlow(),
		"http_timeout", cfg.Atlassian.HTTPTimeout)

	return cfg, nil
}

// loadRuntime loads configuration for a command acting as the configured
// identity with the configured credentials.
func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := config.ValidateAuthConfig(cfg); err != nil {
		return nil, err
	}

	return &runtime{
		config:   cfg,
		identity: cfg.Atlassian.Identity,
		toolset:  newToolset(cfg, newProvider(cfg)),
	}, nil
}

// newToolset wires tokens to the tenant resolver and summarizer described
// by cfg.
func newToolset(cfg *config.Config, tokens auth.Provider) *tools.Toolset {
	httpClient := &http.Client{Timeout: cfg.Atlassian.HTTPTimeout}
	resolver := atlassian.NewResolver(cfg.Atlassian.APIURL, httpClient)

	return tools.New(tokens, resolver, summary.New(cfg.Summary.MaxChars))
}

// newProvider serves the configured access token first and falls back to the
// refresh flow when one is configured.
func newProvider(cfg *config.Config) auth.Provider {
	var chain auth.Chain

	if cfg.Atlassian.AccessToken != "" {
		chain = append(chain, auth.Static{cfg.Atlassian.Identity: cfg.Atlassian.AccessToken})
	}

	if cfg.HasRefreshFlow() {
		store := auth.NewStore(auth.NewOAuthConfig(
			cfg.OAuth.ClientID,
			cfg.OAuth.ClientSecret,
			cfg.OAuth.AuthURL,
			cfg.OAuth.TokenURL,
		))
		store.Put(cfg.Atlassian.Identity, &oauth2.Token{RefreshToken: cfg.OAuth.RefreshToken})
		chain = append(chain, store)
	}

	return chain
}
