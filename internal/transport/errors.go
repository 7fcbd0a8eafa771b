package transport

import (
	"encoding/json"
	"net/http"
)

// JSON-RPC error codes written by the routers themselves. Everything else
// comes from the engine.
const (
	// codeNoValidSession covers every routing rejection: missing or unknown
	// session id, and POSTs without a session that are not initialize
	// requests.
	codeNoValidSession = -32000

	// codeInternalError covers construction and dispatch failures.
	codeInternalError = -32603
)

type rpcErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorBody struct {
	JSONRPC string         `json:"jsonrpc"`
	Error   rpcErrorDetail `json:"error"`
	ID      any            `json:"id"`
}

// writeRPCError writes a structured JSON-RPC error body with the given HTTP
// status. The id is always null: routing errors happen before any request id
// has been parsed.
func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	body := rpcErrorBody{
		JSONRPC: "2.0",
		Error:   rpcErrorDetail{Code: code, Message: message},
		ID:      nil,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		// Marshaling a static struct cannot fail; fall back to a bare status.
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
