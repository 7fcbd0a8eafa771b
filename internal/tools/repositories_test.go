package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/devops-mcp/adomcp/internal/ado"
)

// fakeGitClient records calls and plays back canned values.
type fakeGitClient struct {
	repos    []ado.Repository
	branches []ado.Ref
	prs      []ado.PullRequest
	created  *ado.NewPullRequest
	err      error
}

func (f *fakeGitClient) ListRepositories(_ context.Context, project string) ([]ado.Repository, error) {
	return f.repos, f.err
}

func (f *fakeGitClient) GetRepository(_ context.Context, project, nameOrID string) (*ado.Repository, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.repos) == 0 {
		return nil, errors.New("not found")
	}
	return &f.repos[0], nil
}

func (f *fakeGitClient) ListBranches(_ context.Context, project, repository string) ([]ado.Ref, error) {
	return f.branches, f.err
}

func (f *fakeGitClient) ListPullRequests(_ context.Context, project, repository string, filter ado.PullRequestFilter) ([]ado.PullRequest, error) {
	return f.prs, f.err
}

func (f *fakeGitClient) CreatePullRequest(_ context.Context, project, repository string, in ado.NewPullRequest) (*ado.PullRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &in
	return &ado.PullRequest{PullRequestID: 1, Title: in.Title, Status: "active"}, nil
}

func TestHandleListRepos(t *testing.T) {
	client := &fakeGitClient{repos: []ado.Repository{{ID: "r1", Name: "api"}}}
	tool := NewRepoTools(client)

	result, err := tool.handleListRepos(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
	}))
	if err != nil {
		t.Fatalf("handleListRepos: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), `"name": "api"`) {
		t.Errorf("result missing repository name: %s", getResultText(result))
	}
}

func TestHandleListRepos_MissingProject(t *testing.T) {
	tool := NewRepoTools(&fakeGitClient{})

	result, err := tool.handleListRepos(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleListRepos: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatalf("expected tool error for missing project")
	}
}

func TestHandleListRepos_APIFailure(t *testing.T) {
	tool := NewRepoTools(&fakeGitClient{err: errors.New("HTTP 503")})

	result, err := tool.handleListRepos(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
	}))
	if err != nil {
		t.Fatalf("handleListRepos: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatalf("expected tool error on API failure")
	}
	if !strings.Contains(getResultText(result), "HTTP 503") {
		t.Errorf("error result should carry the cause: %s", getResultText(result))
	}
}

func TestHandleCreatePullRequest(t *testing.T) {
	client := &fakeGitClient{}
	tool := NewRepoTools(client)

	result, err := tool.handleCreatePullRequest(context.Background(), callRequest(map[string]interface{}{
		"project":    "Fabrikam",
		"repository": "api",
		"source_ref": "refs/heads/feature",
		"target_ref": "refs/heads/main",
		"title":      "Add feature",
		"draft":      true,
	}))
	if err != nil {
		t.Fatalf("handleCreatePullRequest: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if client.created == nil {
		t.Fatalf("client never called")
	}
	if client.created.SourceRefName != "refs/heads/feature" || !client.created.IsDraft {
		t.Errorf("created = %+v", client.created)
	}
}

func TestHandleCreatePullRequest_MissingArgs(t *testing.T) {
	tool := NewRepoTools(&fakeGitClient{})

	result, err := tool.handleCreatePullRequest(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
		"title":   "Half-filled",
	}))
	if err != nil {
		t.Fatalf("handleCreatePullRequest: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatalf("expected tool error for missing refs")
	}
}

func TestBranchNames(t *testing.T) {
	refs := []ado.Ref{
		{Name: "refs/heads/main"},
		{Name: "refs/heads/feature/a"},
		{Name: "refs/tags/v1.0.0"},
		{Name: "refs/heads/release"},
	}

	tests := []struct {
		name string
		top  int
		want []string
	}{
		{"all branches", 10, []string{"release", "main", "feature/a"}},
		{"top limits", 2, []string{"release", "main"}},
		{"zero top keeps all", 0, []string{"release", "main", "feature/a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := branchNames(refs, tt.top); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("branchNames(top=%d) = %v, want %v", tt.top, got, tt.want)
			}
		})
	}
}
