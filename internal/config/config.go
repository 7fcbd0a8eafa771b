// Package config loads the environment-derived configuration. A .env file
// in the working directory is honored when present, matching how the server
// is run in containers and local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names read by Load.
const (
	EnvHTTPPort        = "MCP_HTTP_PORT"
	EnvOAuthIssuer     = "OAUTH_ISSUER_BASE_URL"
	EnvOAuthAudience   = "OAUTH_AUDIENCE"
	EnvLogLevel        = "ADOMCP_LOG_LEVEL"
	EnvTenantCachePath = "ADOMCP_TENANT_CACHE"
)

const defaultHTTPPort = 8080

// Config holds process-level settings. Anything request-scoped lives
// elsewhere; anything command-line-scoped (organization, domains, transport
// mode) is parsed in main.
type Config struct {
	HTTPPort           int
	OAuthIssuerBaseURL string
	OAuthAudience      string
	LogLevel           string
	TenantCachePath    string
}

// Load reads configuration from the environment, after a best-effort .env
// load. Invalid values fail loudly; absent optional values fall back to
// defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort: defaultHTTPPort,
		LogLevel: "info",
	}

	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a port number", EnvHTTPPort, v)
		}
		cfg.HTTPPort = port
	}

	cfg.OAuthIssuerBaseURL = os.Getenv(EnvOAuthIssuer)
	cfg.OAuthAudience = os.Getenv(EnvOAuthAudience)

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.TenantCachePath = os.Getenv(EnvTenantCachePath)

	return cfg, nil
}

// ValidateOAuth checks the settings required by the authorized (stateful
// HTTP) deployment. Missing values are a startup error: the server refuses
// to run partially configured.
func (c Config) ValidateOAuth() error {
	if c.OAuthIssuerBaseURL == "" {
		return fmt.Errorf("%s environment variable is not set", EnvOAuthIssuer)
	}
	if c.OAuthAudience == "" {
		return fmt.Errorf("%s environment variable is not set", EnvOAuthAudience)
	}
	return nil
}
