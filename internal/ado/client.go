// Package ado is a thin REST client for the Azure DevOps services the tool
// surface needs: git repositories, work item tracking, and test plans. It
// deliberately exposes only the calls the tools make; it is glue, not an SDK.
package ado

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/devops-mcp/adomcp/internal/auth"
)

const (
	defaultBaseURL = "https://dev.azure.com"

	apiVersion        = "7.1"
	apiVersionPreview = "7.1-preview.4"

	// userAgent identifies this server to the platform.
	userAgent = "AzureDevOps.MCP.Go"

	requestTimeout = 30 * time.Second
)

// APIError is a non-2xx answer from the platform, carrying the remote
// message when one was provided.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("azure devops: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("azure devops: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client talks to one Azure DevOps organization.
type Client struct {
	baseURL      string
	organization string
	token        auth.TokenProvider
	httpClient   *http.Client
	logger       zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different service root. Used in tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for the organization, authorizing every call
// through the token provider.
func NewClient(organization string, token auth.TokenProvider, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		organization: organization,
		token:        token,
		httpClient:   &http.Client{Timeout: requestTimeout},
		logger:       logger.With().Str("component", "ado_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Organization returns the organization this client is bound to.
func (c *Client) Organization() string { return c.organization }

type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, version string, out any) error {
	return c.do(ctx, http.MethodGet, path, query, version, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, version string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, query, version, "application/json", payload, out)
}

// postPatchDocument sends a JSON Patch document, the content type the work
// item write APIs require.
func (c *Client) postPatchDocument(ctx context.Context, path string, version string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, version, "application/json-patch+json", payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, version, contentType string, payload, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("acquiring token: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", version)
	requestURL := c.baseURL + "/" + url.PathEscape(c.organization) + path + "?" + query.Encode()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("calling azure devops")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var remote struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &remote) == nil {
			apiErr.Message = remote.Message
		}
	}
	return apiErr
}

// projectPath prefixes a project-scoped API path.
func projectPath(project, rest string) string {
	return "/" + url.PathEscape(project) + rest
}
