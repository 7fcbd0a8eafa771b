// Package auth supplies access tokens for the remote API client and the
// bearer-token pre-condition middleware for the HTTP transport. Credential
// acquisition flows (interactive browser login, CLI credential chains) are
// deliberately not implemented here; the envvar mode is pure configuration.
package auth

import (
	"context"
	"fmt"
	"os"
)

// TokenEnvVar holds the personal access token for the envvar auth mode.
const TokenEnvVar = "ADO_MCP_AUTH_TOKEN"

// TokenProvider yields a bearer token for an outbound API call.
type TokenProvider func(ctx context.Context) (string, error)

// NewProvider returns the provider for the given authentication mode.
func NewProvider(mode string) (TokenProvider, error) {
	switch mode {
	case "envvar", "":
		return envTokenProvider, nil
	default:
		return nil, fmt.Errorf("unsupported authentication type %q (supported: envvar)", mode)
	}
}

// StaticToken returns a provider that always yields token. Used in tests.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

func envTokenProvider(context.Context) (string, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return "", fmt.Errorf("environment variable %s is not set or empty", TokenEnvVar)
	}
	return token, nil
}
