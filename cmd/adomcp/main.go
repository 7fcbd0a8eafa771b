// adomcp: Azure DevOps MCP Server
//
// An MCP server exposing Azure DevOps repositories, work items, and test
// plans as tools for AI coding assistants.
//
// Usage:
//
//	adomcp <organization>                          # stdio transport
//	adomcp -transport http <organization>          # session-multiplexed HTTP
//	adomcp -transport http-stateless <organization>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/devops-mcp/adomcp/internal/ado"
	"github.com/devops-mcp/adomcp/internal/auth"
	"github.com/devops-mcp/adomcp/internal/config"
	"github.com/devops-mcp/adomcp/internal/domains"
	"github.com/devops-mcp/adomcp/internal/logging"
	adoserver "github.com/devops-mcp/adomcp/internal/server"
	"github.com/devops-mcp/adomcp/internal/tenant"
	"github.com/devops-mcp/adomcp/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		transportMode = flag.String("transport", "stdio", "transport to serve on: stdio, http, or http-stateless")
		port          = flag.Int("port", 0, "HTTP port (overrides "+config.EnvHTTPPort+")")
		domainsFlag   = flag.String("domains", "all", "comma-separated tool domains to enable: "+domainsUsage())
		tenantFlag    = flag.String("tenant", "", "Azure tenant id (skips the tenant lookup)")
		authMode      = flag.String("authentication", "envvar", "authentication type for Azure DevOps calls")
		logLevel      = flag.String("log-level", "", "log level (overrides "+config.EnvLogLevel+")")
		showVersion   = flag.Bool("version", false, "print the version and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("adomcp v%s\n", adoserver.Version)
		return
	}
	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	organization := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTPPort = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := logging.New(cfg.LogLevel)

	if err := run(organization, *transportMode, *domainsFlag, *tenantFlag, *authMode, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(organization, transportMode, domainsFlag, tenantID, authMode string, cfg config.Config, logger zerolog.Logger) error {
	set, err := domains.Parse([]string{domainsFlag})
	if err != nil {
		return err
	}

	provider, err := auth.NewProvider(authMode)
	if err != nil {
		return err
	}

	if tenantID == "" {
		tenantID = resolveTenant(organization, cfg, logger)
	}
	logger.Info().
		Str("organization", organization).
		Str("tenant", tenantID).
		Str("transport", transportMode).
		Msg("starting")

	client := ado.NewClient(organization, provider, logger)
	s, err := adoserver.New(adoserver.Options{
		Domains: set,
		Client:  client,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	switch transportMode {
	case "stdio":
		return mcpserver.ServeStdio(s)
	case "http":
		if err := cfg.ValidateOAuth(); err != nil {
			return err
		}
		router := transport.NewSessionRouter(s, logger)
		bearer := auth.RequireBearer(auth.BearerOptions{
			IssuerBaseURL: cfg.OAuthIssuerBaseURL,
			Audience:      cfg.OAuthAudience,
		}, logger)
		defer router.Registry().CloseAll()
		return serveHTTP(cfg.HTTPPort, bearer(router.Handler()), logger)
	case "http-stateless":
		router := transport.NewStatelessRouter(s, logger)
		return serveHTTP(cfg.HTTPPort, router.Handler(), logger)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, http, http-stateless)", transportMode)
	}
}

// resolveTenant looks up the organization's Azure tenant through the cache.
// Failures are not fatal: the server works without a tenant id, it just
// cannot help clients pick the right sign-in tenant.
func resolveTenant(organization string, cfg config.Config, logger zerolog.Logger) string {
	path := cfg.TenantCachePath
	if path == "" {
		var err error
		path, err = tenant.DefaultCachePath()
		if err != nil {
			logger.Warn().Err(err).Msg("tenant cache unavailable")
			return ""
		}
	}
	resolver, err := tenant.Open(path, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("tenant cache unavailable")
		return ""
	}
	defer resolver.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	tenantID, err := resolver.Resolve(ctx, organization)
	if err != nil {
		logger.Warn().Err(err).Str("organization", organization).Msg("tenant lookup failed")
		return ""
	}
	return tenantID
}

func serveHTTP(port int, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func domainsUsage() string {
	names := "all"
	for _, d := range domains.Known() {
		names += ", " + d
	}
	return names
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `adomcp v%s — Azure DevOps MCP Server

Usage:
  adomcp [flags] <organization>

Flags:
  -transport string        stdio, http, or http-stateless (default "stdio")
  -port int                HTTP port (default $%s or 8080)
  -domains string          tool domains to enable (default "all")
  -tenant string           Azure tenant id (skips the tenant lookup)
  -authentication string   authentication type (default "envvar")
  -log-level string        trace, debug, info, warn, or error
  -version                 print the version and exit

Environment:
  %-24s personal access token for Azure DevOps calls
  %-24s HTTP port for the http transports
  %-24s OAuth issuer, required by -transport http
  %-24s OAuth audience, required by -transport http
  %-24s log level (flag takes precedence)
  %-24s tenant cache database path

Configuration for stdio, in your AI tool's MCP config:

  {
    "mcpServers": {
      "azure-devops": {
        "command": "adomcp",
        "args": ["<organization>"]
      }
    }
  }
`, adoserver.Version,
		config.EnvHTTPPort,
		auth.TokenEnvVar,
		config.EnvHTTPPort,
		config.EnvOAuthIssuer,
		config.EnvOAuthAudience,
		config.EnvLogLevel,
		config.EnvTenantCachePath,
	)
}
