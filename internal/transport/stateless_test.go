package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Two sequential POSTs carrying the same JSON-RPC request id must be served
// by distinct, unshared exchanges, and neither response may reveal an id.
func TestStatelessRouter_NoSharedState(t *testing.T) {
	engine := newFakeEngine()
	router := NewStatelessRouter(engine, testLogger())
	srv := httptest.NewServer(router.Handler())
	defer srv.Close()

	body := `{"jsonrpc":"2.0","id":42,"method":"tools/list"}`

	seen := make(map[any]bool)
	for i := 0; i < 2; i++ {
		resp := postMessage(t, srv.URL, "", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST %d: status = %d, want 200", i, resp.StatusCode)
		}
		if got := resp.Header.Get(sessionHeader); got != "" {
			t.Errorf("POST %d: response leaked session id %q", i, got)
		}
		id, result := decodeResult(t, resp)
		if id != float64(42) {
			t.Errorf("POST %d: id = %v, want 42", i, id)
		}
		if seen[result["sessionId"]] {
			t.Errorf("POST %d: exchange reused engine session %v", i, result["sessionId"])
		}
		seen[result["sessionId"]] = true
	}

	// Every exchange was torn down once its response completed.
	if engine.registeredCount() != 0 {
		t.Errorf("engine sessions alive = %d, want 0", engine.registeredCount())
	}
	if got := len(engine.unregisteredIDs()); got != 2 {
		t.Errorf("engine unregistered %d sessions, want 2", got)
	}
}

// Stateless mode has no session surface at all: GET and DELETE do not exist.
func TestStatelessRouter_OnlyPost(t *testing.T) {
	router := NewStatelessRouter(newFakeEngine(), testLogger())
	srv := httptest.NewServer(router.Handler())
	defer srv.Close()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req, _ := http.NewRequest(method, srv.URL+"/mcp", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s /mcp: %v", method, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, resp.StatusCode)
		}
	}
}

func TestStatelessRouter_ConstructionFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.registerErr = errors.New("engine unavailable")
	router := NewStatelessRouter(engine, testLogger())
	srv := httptest.NewServer(router.Handler())
	defer srv.Close()

	resp := postMessage(t, srv.URL, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body := decodeErrorBody(t, resp); body.Error.Code != codeInternalError {
		t.Errorf("code = %d, want %d", body.Error.Code, codeInternalError)
	}
}

func TestStatelessRouter_NotificationReturns202(t *testing.T) {
	router := NewStatelessRouter(newFakeEngine(), testLogger())
	srv := httptest.NewServer(router.Handler())
	defer srv.Close()

	resp := postMessage(t, srv.URL, "", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("notification status = %d, want 202", resp.StatusCode)
	}
}
