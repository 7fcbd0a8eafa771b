package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/devops-mcp/adomcp/internal/ado"
	"github.com/devops-mcp/adomcp/internal/auth"
	"github.com/devops-mcp/adomcp/internal/domains"
)

func testClient() *ado.Client {
	return ado.NewClient("contoso", auth.StaticToken("pat"), zerolog.Nop())
}

func listTools(t *testing.T, set domains.Set) string {
	t.Helper()
	s, err := New(Options{
		Domains: set,
		Client:  testClient(),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg := s.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
	))
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshaling tools/list response: %v", err)
	}
	return string(raw)
}

func TestNew_RegistersAllDomains(t *testing.T) {
	set, err := domains.Parse([]string{"all"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := listTools(t, set)
	for _, name := range []string{
		"repo_list_repos_by_project",
		"wit_get_work_item",
		"testplan_list_test_plans",
	} {
		if !strings.Contains(got, name) {
			t.Errorf("tools/list missing %s", name)
		}
	}
}

func TestNew_FiltersDisabledDomains(t *testing.T) {
	set, err := domains.Parse([]string{"work"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := listTools(t, set)
	if !strings.Contains(got, "wit_get_work_item") {
		t.Errorf("tools/list missing work item tools")
	}
	if strings.Contains(got, "repo_") || strings.Contains(got, "testplan_") {
		t.Errorf("disabled domains leaked into tools/list: %s", got)
	}
}

func TestNew_RejectsEmptyDomainSet(t *testing.T) {
	if _, err := New(Options{
		Domains: domains.Set{},
		Client:  testClient(),
		Logger:  zerolog.Nop(),
	}); err == nil {
		t.Fatalf("expected error for empty domain set")
	}
}

func TestNew_RejectsNilClient(t *testing.T) {
	set, _ := domains.Parse([]string{"all"})
	if _, err := New(Options{Domains: set, Logger: zerolog.Nop()}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
