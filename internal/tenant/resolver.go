// Package tenant resolves an organization name to its tenant id, backed by
// a small on-disk SQLite cache. Resolution happens once per process start;
// freshness is advisory, so a stale answer beats no answer when the remote
// lookup fails.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// TTL is how long a cached tenant id is trusted without revalidation.
const TTL = 7 * 24 * time.Hour

const (
	defaultProbeBase = "https://vssps.dev.azure.com"

	// tenantHeader is returned by the organization endpoint. The probe
	// expects a 404: the endpoint identifies the tenant without auth.
	tenantHeader = "X-Vss-Resourcetenant"

	probeTimeout = 10 * time.Second
)

// ErrNoTenant is returned when the remote lookup fails and no cached entry
// exists to fall back on.
var ErrNoTenant = errors.New("tenant: no tenant id available")

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS org_tenants (
	org          TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	refreshed_on INTEGER NOT NULL
);`

// Resolver is a read-through cache of organization→tenant lookups.
type Resolver struct {
	db     *sql.DB
	logger zerolog.Logger

	// Overridable in tests.
	client    *http.Client
	probeBase string
	now       func() time.Time
}

// DefaultCachePath returns the per-user cache database location.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".adomcp", "org-tenants.db"), nil
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, logger zerolog.Logger) (*Resolver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening tenant cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing tenant cache schema: %w", err)
	}
	return &Resolver{
		db:        db,
		logger:    logger.With().Str("component", "tenant_resolver").Logger(),
		client:    &http.Client{Timeout: probeTimeout},
		probeBase: defaultProbeBase,
		now:       time.Now,
	}, nil
}

// Close releases the underlying database.
func (r *Resolver) Close() error { return r.db.Close() }

// Resolve returns the tenant id for org. A fresh cache entry is returned
// without touching the network. On a miss or an expired entry, the remote
// endpoint is probed; a successful probe refreshes the cache best-effort.
// If the probe fails, an expired entry is still returned as a fallback.
func (r *Resolver) Resolve(ctx context.Context, org string) (string, error) {
	cached, refreshedOn, found, err := r.lookup(ctx, org)
	if err != nil {
		r.logger.Warn().Err(err).Str("org", org).Msg("reading tenant cache")
		found = false
	}
	if found && r.now().Sub(refreshedOn) < TTL {
		return cached, nil
	}

	tenantID, probeErr := r.probe(ctx, org)
	if probeErr == nil {
		r.store(ctx, org, tenantID)
		return tenantID, nil
	}

	if found {
		r.logger.Warn().Err(probeErr).Str("org", org).
			Msg("tenant probe failed, using expired cache entry")
		return cached, nil
	}

	r.logger.Error().Err(probeErr).Str("org", org).Msg("tenant probe failed")
	return "", fmt.Errorf("%w for organization %q: %v", ErrNoTenant, org, probeErr)
}

func (r *Resolver) lookup(ctx context.Context, org string) (tenantID string, refreshedOn time.Time, found bool, err error) {
	var unix int64
	row := r.db.QueryRowContext(ctx,
		`SELECT tenant_id, refreshed_on FROM org_tenants WHERE org = ?`, org)
	switch err := row.Scan(&tenantID, &unix); {
	case errors.Is(err, sql.ErrNoRows):
		return "", time.Time{}, false, nil
	case err != nil:
		return "", time.Time{}, false, err
	}
	return tenantID, time.Unix(unix, 0), true, nil
}

// store writes the refreshed entry back. Failures are logged, not returned:
// a cache write must never affect the resolved value.
func (r *Resolver) store(ctx context.Context, org, tenantID string) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO org_tenants (org, tenant_id, refreshed_on) VALUES (?, ?, ?)
		 ON CONFLICT(org) DO UPDATE SET tenant_id = excluded.tenant_id, refreshed_on = excluded.refreshed_on`,
		org, tenantID, r.now().Unix())
	if err != nil {
		r.logger.Error().Err(err).Str("org", org).Msg("saving tenant cache entry")
	}
}

// probe asks the organization endpoint for its tenant. The endpoint answers
// 404 for a HEAD request but still names the tenant in a response header.
func (r *Resolver) probe(ctx context.Context, org string) (string, error) {
	probeURL := r.probeBase + "/" + url.PathEscape(org)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
	if err != nil {
		return "", fmt.Errorf("building tenant probe: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", probeURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		return "", fmt.Errorf("probing %s: expected status 404, got %d", probeURL, resp.StatusCode)
	}
	tenantID := resp.Header.Get(tenantHeader)
	if tenantID == "" {
		return "", fmt.Errorf("probing %s: %s header not found", probeURL, tenantHeader)
	}
	return tenantID, nil
}
