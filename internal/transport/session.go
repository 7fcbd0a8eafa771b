package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// sessionHeader is the HTTP header carrying the session identifier, per the
// MCP streamable HTTP transport. Go canonicalizes header names, so reads and
// writes match the lowercase form clients send.
const sessionHeader = "Mcp-Session-Id"

// notificationBuffer bounds how many undelivered server-push notifications a
// session holds before new ones are dropped. A client that never opens a GET
// stream must not pin memory forever.
const notificationBuffer = 64

// SessionTransport binds one engine session to the HTTP layer. It is the
// exclusive owner of its session id and the only component allowed to close
// it. It implements server.ClientSession so the engine can push
// notifications to it.
type SessionTransport struct {
	id        string
	engine    Engine
	logger    zerolog.Logger
	createdAt time.Time

	// announce controls whether responses echo the session id header.
	// Stateless exchanges never reveal their internal id.
	announce bool

	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	closeOnce sync.Once
	done      chan struct{}

	// onClose is fired exactly once when the transport closes. The registry
	// installs it with the session id captured at registration time.
	mu      sync.Mutex
	onClose func()
}

// NewSessionTransport creates a transport for a registered, multi-request
// session. The id is generated here and never accepted from the client.
func NewSessionTransport(engine Engine, logger zerolog.Logger) *SessionTransport {
	t := newTransport(engine, logger)
	t.announce = true
	return t
}

// NewStatelessTransport creates a single-exchange transport. Its id exists
// only to key the engine's internal bookkeeping and is never written to the
// response.
func NewStatelessTransport(engine Engine, logger zerolog.Logger) *SessionTransport {
	return newTransport(engine, logger)
}

func newTransport(engine Engine, logger zerolog.Logger) *SessionTransport {
	id := uuid.NewString()
	return &SessionTransport{
		id:            id,
		engine:        engine,
		logger:        logger.With().Str("session_id", id).Logger(),
		createdAt:     time.Now(),
		notifications: make(chan mcp.JSONRPCNotification, notificationBuffer),
		done:          make(chan struct{}),
	}
}

// SessionID implements server.ClientSession.
func (t *SessionTransport) SessionID() string { return t.id }

// NotificationChannel implements server.ClientSession.
func (t *SessionTransport) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return t.notifications
}

// Initialize implements server.ClientSession.
func (t *SessionTransport) Initialize() { t.initialized.Store(true) }

// Initialized implements server.ClientSession.
func (t *SessionTransport) Initialized() bool { return t.initialized.Load() }

// CreatedAt reports when the transport was constructed, for diagnostics.
func (t *SessionTransport) CreatedAt() time.Time { return t.createdAt }

// Connect registers the transport with the engine. It must succeed before
// the transport becomes reachable from any registry; a failed Connect leaves
// no trace in the engine or elsewhere.
func (t *SessionTransport) Connect(ctx context.Context) error {
	// The session outlives the request that created it, so decouple the
	// registration from the request's cancellation.
	if err := t.engine.RegisterSession(context.WithoutCancel(ctx), t); err != nil {
		return fmt.Errorf("registering session with engine: %w", err)
	}
	return nil
}

// OnClose installs the close notification hook. At most one hook is
// supported; the registry is the only subscriber.
func (t *SessionTransport) OnClose(fn func()) {
	t.mu.Lock()
	t.onClose = fn
	t.mu.Unlock()
}

// Close tears the session down: it detaches from the engine, fires the close
// hook, and unblocks any event stream. Safe to call more than once.
func (t *SessionTransport) Close() {
	t.closeOnce.Do(func() {
		t.engine.UnregisterSession(context.Background(), t.id)
		t.mu.Lock()
		fn := t.onClose
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
		close(t.done)
		t.logger.Debug().Msg("session closed")
	})
}

// Done is closed when the transport has been torn down.
func (t *SessionTransport) Done() <-chan struct{} { return t.done }

// HandleRequest runs exactly one message exchange: it hands the raw body to
// the engine and writes the engine's response (or 202 for notifications).
// Errors after the header has been written are logged only; the status line
// cannot be taken back.
func (t *SessionTransport) HandleRequest(w http.ResponseWriter, r *http.Request, body json.RawMessage) {
	ctx := t.engine.WithContext(r.Context(), t)
	response := t.engine.HandleMessage(ctx, body)

	if t.announce {
		w.Header().Set(sessionHeader, t.id)
	}

	if response == nil {
		// Notification: nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		t.logger.Error().Err(err).Msg("marshaling engine response")
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		t.logger.Debug().Err(err).Msg("writing response")
	}
}

// ServeEvents streams server-initiated notifications to the client as
// server-sent events until the client disconnects or the session closes.
func (t *SessionTransport) ServeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(sessionHeader, t.id)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-t.done:
			return
		case notification := <-t.notifications:
			payload, err := json.Marshal(notification)
			if err != nil {
				t.logger.Error().Err(err).Msg("marshaling notification")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload); err != nil {
				t.logger.Debug().Err(err).Msg("writing event stream")
				return
			}
			flusher.Flush()
		}
	}
}
