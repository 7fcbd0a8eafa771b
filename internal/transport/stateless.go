package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// StatelessRouter serves the sessionless streamable HTTP mode: every POST
// gets a private transport+session pair that is torn down when the exchange
// ends. Nothing is shared between requests, so colliding JSON-RPC request
// ids from different clients cannot cross-talk. The price is no server push
// and no multi-step handshake: GET and DELETE are not part of this mode.
type StatelessRouter struct {
	engine Engine
	logger zerolog.Logger
}

// NewStatelessRouter builds a router that never persists a session.
func NewStatelessRouter(engine Engine, logger zerolog.Logger) *StatelessRouter {
	return &StatelessRouter{
		engine: engine,
		logger: logger.With().Str("component", "stateless_router").Logger(),
	}
}

// Handler returns the HTTP handler for the /mcp endpoint. Only POST is
// routed; chi answers anything else on the path with 405.
func (st *StatelessRouter) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Post("/mcp", st.handlePost)
	return r
}

func (st *StatelessRouter) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeNoValidSession, "Bad Request: unreadable body")
		return
	}

	t := NewStatelessTransport(st.engine, st.logger)
	if err := t.Connect(r.Context()); err != nil {
		st.logger.Error().Err(err).Msg("creating stateless exchange")
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}
	// Unconditional teardown: the exchange ends when this handler returns,
	// whether the response completed or the client went away.
	defer t.Close()

	t.HandleRequest(w, r, body)
}
