package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// BearerOptions configures the bearer pre-condition middleware. Both fields
// are required; the caller validates them before the server starts.
type BearerOptions struct {
	// IssuerBaseURL must match the token's iss claim (trailing slash
	// insensitive).
	IssuerBaseURL string
	// Audience must appear in the token's aud claim.
	Audience string
}

// RequireBearer returns middleware that rejects requests without an
// acceptable bearer token. Cryptographic signature verification belongs to
// the fronting gateway that terminates TLS; this check enforces presence,
// shape, issuer, audience, and expiry of the claims.
func RequireBearer(opts BearerOptions, logger zerolog.Logger) func(http.Handler) http.Handler {
	issuer := strings.TrimSuffix(opts.IssuerBaseURL, "/")
	parser := jwt.NewParser()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := &jwt.RegisteredClaims{}
			if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
				logger.Debug().Err(err).Msg("rejecting malformed bearer token")
				deny(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			switch {
			case strings.TrimSuffix(claims.Issuer, "/") != issuer:
				deny(w, http.StatusUnauthorized, "unexpected token issuer")
			case !hasAudience(claims.Audience, opts.Audience):
				deny(w, http.StatusForbidden, "token not issued for this audience")
			case claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()):
				deny(w, http.StatusUnauthorized, "token expired")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func hasAudience(audiences jwt.ClaimStrings, want string) bool {
	for _, aud := range audiences {
		if aud == want {
			return true
		}
	}
	return false
}

func deny(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
