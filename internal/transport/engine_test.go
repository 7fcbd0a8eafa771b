package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// fakeEngine is a minimal Engine for router tests. Its HandleMessage echoes
// the request id, the method, and the session id it saw in the context, so
// tests can verify which session served a given HTTP exchange.
type fakeEngine struct {
	mu           sync.Mutex
	registered   map[string]server.ClientSession
	unregistered []string
	registerErr  error
}

type sessionCtxKey struct{}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{registered: make(map[string]server.ClientSession)}
}

func (e *fakeEngine) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	var req struct {
		ID     any    `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(message, &req); err != nil {
		return map[string]any{
			"jsonrpc": "2.0",
			"id":      nil,
			"error":   map[string]any{"code": -32700, "message": "parse error"},
		}
	}
	if req.ID == nil {
		// Notification: no response.
		return nil
	}

	sessionID := ""
	if s, ok := ctx.Value(sessionCtxKey{}).(server.ClientSession); ok {
		sessionID = s.SessionID()
	}
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result": map[string]any{
			"method":    req.Method,
			"sessionId": sessionID,
		},
	}
}

func (e *fakeEngine) RegisterSession(_ context.Context, session server.ClientSession) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registerErr != nil {
		return e.registerErr
	}
	e.registered[session.SessionID()] = session
	return nil
}

func (e *fakeEngine) UnregisterSession(_ context.Context, sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.registered, sessionID)
	e.unregistered = append(e.unregistered, sessionID)
}

func (e *fakeEngine) WithContext(ctx context.Context, session server.ClientSession) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

func (e *fakeEngine) registeredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.registered)
}

func (e *fakeEngine) unregisteredIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.unregistered...)
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
