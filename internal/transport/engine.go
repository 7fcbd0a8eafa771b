// Package transport implements the streamable HTTP transport for the MCP
// server: a session-multiplexed router that maps Mcp-Session-Id headers to
// long-lived per-session transports, and a stateless sibling that builds a
// throwaway transport per request.
//
// The protocol engine itself (message parsing, dispatch to tool handlers)
// lives in mcp-go; this package only decides which engine session an inbound
// HTTP request belongs to and shuttles raw bytes across that boundary.
package transport

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is the subset of *server.MCPServer the transport layer drives.
// Narrowing it to an interface keeps the routers testable with a fake.
type Engine interface {
	// HandleMessage processes one raw JSON-RPC message and returns the
	// response message, or nil for notifications.
	HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage

	// RegisterSession attaches a client session to the engine so that
	// server-initiated notifications can reach it.
	RegisterSession(ctx context.Context, session server.ClientSession) error

	// UnregisterSession detaches a session previously registered.
	UnregisterSession(ctx context.Context, sessionID string)

	// WithContext returns ctx tagged with the session, so tool handlers
	// can recover the calling session during HandleMessage.
	WithContext(ctx context.Context, session server.ClientSession) context.Context
}

var _ Engine = (*server.MCPServer)(nil)
