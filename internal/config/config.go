// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultAPIURL is the Atlassian cloud API gateway.
	DefaultAPIURL = "https://api.atlassian.com"
	// DefaultAuthURL is the Atlassian OAuth 2.0 (3LO) authorization endpoint.
	DefaultAuthURL = "https://auth.atlassian.com/authorize"
	// DefaultTokenURL is the Atlassian OAuth 2.0 token endpoint.
	DefaultTokenURL = "https://auth.atlassian.com/oauth/token"
	// DefaultIdentity names the caller when no identity is supplied.
	DefaultIdentity = "default"
	// DefaultHTTPAddr keeps the streamable HTTP transport on loopback.
	DefaultHTTPAddr = "127.0.0.1:8080"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Atlassian AtlassianConfig
	OAuth     OAuthConfig
	MCP       MCPConfig
	Summary   SummaryConfig
}

// AtlassianConfig holds the cloud gateway and default credential settings.
type AtlassianConfig struct {
	APIURL      string
	AccessToken string
	Identity    string
	// HTTPTimeout of zero leaves requests bounded only by the transport.
	HTTPTimeout time.Duration
}

// OAuthConfig holds the 3LO client used to refresh access tokens.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AuthURL      string
	TokenURL     string
}

// MCPConfig selects how the tool server is exposed.
type MCPConfig struct {
	Transport      string
	HTTPAddr       string
	IdentityHeader string
}

// SummaryConfig controls Confluence page summarization.
type SummaryConfig struct {
	MaxChars int
}

// LoadConfig initializes and loads configuration from environment variables
// and, when configFile is not empty, from that file. Environment wins.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("atlassian.api_url", DefaultAPIURL)
	v.SetDefault("atlassian.identity", DefaultIdentity)
	v.SetDefault("atlassian.http_timeout", "0s")
	v.SetDefault("oauth.auth_url", DefaultAuthURL)
	v.SetDefault("oauth.token_url", DefaultTokenURL)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.http_addr", DefaultHTTPAddr)
	v.SetDefault("mcp.identity_header", "X-Atlassian-Identity")
	v.SetDefault("summary.max_chars", 0)

	// Map specific environment variables
	v.BindEnv("atlassian.api_url", "ATLASSIAN_API_URL")
	v.BindEnv("atlassian.access_token", "ATLASSIAN_ACCESS_TOKEN")
	v.BindEnv("atlassian.identity", "ATLASSIAN_IDENTITY")
	v.BindEnv("atlassian.http_timeout", "ATLASSIAN_HTTP_TIMEOUT")
	v.BindEnv("oauth.client_id", "ATLASSIAN_CLIENT_ID")
	v.BindEnv("oauth.client_secret", "ATLASSIAN_CLIENT_SECRET")
	v.BindEnv("oauth.refresh_token", "ATLASSIAN_REFRESH_TOKEN")
	v.BindEnv("oauth.auth_url", "ATLASSIAN_AUTH_URL")
	v.BindEnv("oauth.token_url", "ATLASSIAN_TOKEN_URL")
	v.BindEnv("mcp.transport", "MCP_TRANSPORT")
	v.BindEnv("mcp.http_addr", "MCP_HTTP_ADDR")
	v.BindEnv("mcp.identity_header", "MCP_IDENTITY_HEADER")
	v.BindEnv("summary.max_chars", "SUMMARY_MAX_CHARS")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	config := &Config{
		Atlassian: AtlassianConfig{
			APIURL:      strings.TrimRight(v.GetString("atlassian.api_url"), "/"),
			AccessToken: v.GetString("atlassian.access_token"),
			Identity:    v.GetString("atlassian.identity"),
			HTTPTimeout: v.GetDuration("atlassian.http_timeout"),
		},
		OAuth: OAuthConfig{
			ClientID:     v.GetString("oauth.client_id"),
			ClientSecret: v.GetString("oauth.client_secret"),
			RefreshToken: v.GetString("oauth.refresh_token"),
			AuthURL:      v.GetString("oauth.auth_url"),
			TokenURL:     v.GetString("oauth.token_url"),
		},
		MCP: MCPConfig{
			Transport:      strings.ToLower(v.GetString("mcp.transport")),
			HTTPAddr:       v.GetString("mcp.http_addr"),
			IdentityHeader: v.GetString("mcp.identity_header"),
		},
		Summary: SummaryConfig{
			MaxChars: v.GetInt("summary.max_chars"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig rejects values that can never work regardless of the command.
func validateConfig(config *Config) error {
	if config.Atlassian.APIURL == "" {
		return fmt.Errorf("ATLASSIAN_API_URL must not be empty")
	}
	if config.Atlassian.HTTPTimeout < 0 {
		return fmt.Errorf("ATLASSIAN_HTTP_TIMEOUT must not be negative: %s", config.Atlassian.HTTPTimeout)
	}
	switch config.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unsupported MCP_TRANSPORT %q, expected stdio or http", config.MCP.Transport)
	}
	if config.Summary.MaxChars < 0 {
		return fmt.Errorf("SUMMARY_MAX_CHARS must not be negative: %d", config.Summary.MaxChars)
	}
	return nil
}

// HasRefreshFlow reports whether enough OAuth settings exist to refresh tokens.
func (c *Config) HasRefreshFlow() bool {
	return c.OAuth.ClientID != "" && c.OAuth.ClientSecret != "" && c.OAuth.RefreshToken != ""
}

// ValidateAuthConfig ensures at least one way of obtaining an access token
// for the default identity is configured.
func ValidateAuthConfig(config *Config) error {
	if config.Atlassian.AccessToken != "" {
		return nil
	}

	var missingVars []string
	if config.OAuth.ClientID == "" {
		missingVars = append(missingVars, "ATLASSIAN_CLIENT_ID")
	}
	if config.OAuth.ClientSecret == "" {
		missingVars = append(missingVars, "ATLASSIAN_CLIENT_SECRET")
	}
	if config.OAuth.RefreshToken == "" {
		missingVars = append(missingVars, "ATLASSIAN_REFRESH_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: set ATLASSIAN_ACCESS_TOKEN or %v", missingVars)
	}

	return nil
}
