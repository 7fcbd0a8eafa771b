package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps a single protocol message. MCP messages are tool calls
// and results, not file uploads.
const maxBodyBytes = 4 << 20

// SessionRouter serves the stateful streamable HTTP mode: the first
// initialize request creates a session, and every later request carries the
// session id in the Mcp-Session-Id header. One engine session, and exactly
// one SessionTransport, serves a session for its whole lifetime — that is
// what keeps request/response correlation private to each client even when
// two clients reuse the same JSON-RPC request ids.
type SessionRouter struct {
	engine   Engine
	registry *Registry
	logger   zerolog.Logger
}

// NewSessionRouter builds a router multiplexing sessions over the engine.
func NewSessionRouter(engine Engine, logger zerolog.Logger) *SessionRouter {
	return &SessionRouter{
		engine:   engine,
		registry: NewRegistry(),
		logger:   logger.With().Str("component", "session_router").Logger(),
	}
}

// Registry exposes the session table, primarily for shutdown teardown.
func (sr *SessionRouter) Registry() *Registry { return sr.registry }

// Handler returns the HTTP handler for the /mcp endpoint. Browser clients
// must be able to send and read the session id header, so CORS both allows
// and exposes it. The wildcard origin mirrors the deployment default; a
// fronting gateway is expected to narrow it where needed.
func (sr *SessionRouter) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization", sessionHeader},
		ExposedHeaders: []string{sessionHeader},
	}))
	r.Post("/mcp", sr.handlePost)
	r.Get("/mcp", sr.handleGetOrDelete)
	r.Delete("/mcp", sr.handleGetOrDelete)
	return r
}

func (sr *SessionRouter) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeNoValidSession, "Bad Request: unreadable body")
		return
	}

	sessionID := r.Header.Get(sessionHeader)

	switch {
	case sessionID != "":
		t, ok := sr.registry.Lookup(sessionID)
		if !ok {
			sr.logger.Debug().Str("session_id", sessionID).Msg("unknown session id")
			writeRPCError(w, http.StatusBadRequest, codeNoValidSession, "Bad Request: No valid session ID provided")
			return
		}
		t.HandleRequest(w, r, body)

	case isInitializeRequest(body):
		t, err := sr.createSession(r.Context())
		if err != nil {
			sr.logger.Error().Err(err).Msg("creating session")
			writeRPCError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
			return
		}
		sr.logger.Debug().Str("session_id", t.SessionID()).Msg("session created")
		t.HandleRequest(w, r, body)

	default:
		writeRPCError(w, http.StatusBadRequest, codeNoValidSession, "Bad Request: No valid session ID provided")
	}
}

// createSession builds, connects, and registers a fresh session transport.
// Registration happens only after the engine has accepted the session, so a
// construction failure leaves the registry untouched.
func (sr *SessionRouter) createSession(ctx context.Context) (*SessionTransport, error) {
	t := NewSessionTransport(sr.engine, sr.logger)
	if err := t.Connect(ctx); err != nil {
		return nil, err
	}
	sr.registry.Add(t)
	return t, nil
}

// handleGetOrDelete serves the two session-scoped methods: GET opens the
// server-push event stream, DELETE tears the session down.
func (sr *SessionRouter) handleGetOrDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	t, ok := sr.registry.Lookup(sessionID)
	if sessionID == "" || !ok {
		writeRPCError(w, http.StatusBadRequest, codeNoValidSession, "Bad Request: invalid or missing session ID")
		return
	}

	if r.Method == http.MethodDelete {
		t.Close()
		w.Header().Set(sessionHeader, sessionID)
		w.WriteHeader(http.StatusOK)
		return
	}

	t.ServeEvents(w, r)
}

// isInitializeRequest reports whether the raw message is a single initialize
// request. Only that message may open a session.
func isInitializeRequest(body []byte) bool {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Method == string(mcp.MethodInitialize)
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
