package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/devops-mcp/adomcp/internal/ado"
)

// GitClient is the slice of the ADO client the repository tools need.
type GitClient interface {
	ListRepositories(ctx context.Context, project string) ([]ado.Repository, error)
	GetRepository(ctx context.Context, project, nameOrID string) (*ado.Repository, error)
	ListBranches(ctx context.Context, project, repository string) ([]ado.Ref, error)
	ListPullRequests(ctx context.Context, project, repository string, filter ado.PullRequestFilter) ([]ado.PullRequest, error)
	CreatePullRequest(ctx context.Context, project, repository string, in ado.NewPullRequest) (*ado.PullRequest, error)
}

// RepoTools is the repositories domain of the tool surface.
type RepoTools struct {
	client GitClient
}

// NewRepoTools creates the repository tools over the given client.
func NewRepoTools(client GitClient) *RepoTools {
	return &RepoTools{client: client}
}

// Register adds every repository tool to the server.
func (t *RepoTools) Register(s *server.MCPServer) {
	s.AddTool(t.listReposDefinition(), t.handleListRepos)
	s.AddTool(t.getRepoDefinition(), t.handleGetRepo)
	s.AddTool(t.listBranchesDefinition(), t.handleListBranches)
	s.AddTool(t.listPullRequestsDefinition(), t.handleListPullRequests)
	s.AddTool(t.createPullRequestDefinition(), t.handleCreatePullRequest)
}

func (t *RepoTools) listReposDefinition() mcp.Tool {
	return mcp.NewTool("repo_list_repos_by_project",
		mcp.WithDescription("List the git repositories of a project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
}

func (t *RepoTools) handleListRepos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}
	repos, err := t.client.ListRepositories(ctx, project)
	if err != nil {
		return apiFailure("listing repositories", err), nil
	}
	return jsonResult(repos)
}

func (t *RepoTools) getRepoDefinition() mcp.Tool {
	return mcp.NewTool("repo_get_repo_by_name_or_id",
		mcp.WithDescription("Get a single git repository by its name or id."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name or id")),
	)
}

func (t *RepoTools) handleGetRepo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	repository := req.GetString("repository", "")
	if project == "" || repository == "" {
		return mcp.NewToolResultError("'project' and 'repository' are required"), nil
	}
	repo, err := t.client.GetRepository(ctx, project, repository)
	if err != nil {
		return apiFailure("getting repository", err), nil
	}
	return jsonResult(repo)
}

func (t *RepoTools) listBranchesDefinition() mcp.Tool {
	return mcp.NewTool("repo_list_branches_by_repo",
		mcp.WithDescription("List branch names of a repository, newest-sorted."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name or id")),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of branches to return. Defaults to 100."),
			mcp.DefaultNumber(100),
		),
	)
}

func (t *RepoTools) handleListBranches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	repository := req.GetString("repository", "")
	if project == "" || repository == "" {
		return mcp.NewToolResultError("'project' and 'repository' are required"), nil
	}
	top := req.GetInt("top", 100)

	refs, err := t.client.ListBranches(ctx, project, repository)
	if err != nil {
		return apiFailure("listing branches", err), nil
	}
	return jsonResult(branchNames(refs, top))
}

// branchNames strips the refs/heads/ prefix, drops non-branch refs, and
// returns at most top names in reverse lexical order.
func branchNames(refs []ado.Ref, top int) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.HasPrefix(ref.Name, "refs/heads/") {
			names = append(names, strings.TrimPrefix(ref.Name, "refs/heads/"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if top > 0 && len(names) > top {
		names = names[:top]
	}
	return names
}

func (t *RepoTools) listPullRequestsDefinition() mcp.Tool {
	return mcp.NewTool("repo_list_pull_requests_by_repo",
		mcp.WithDescription("List pull requests of a repository."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name or id")),
		mcp.WithString("status",
			mcp.Description("Filter by status. Defaults to 'active'."),
			mcp.DefaultString("active"),
			mcp.Enum("active", "completed", "abandoned", "all"),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of pull requests to return. Defaults to 25."),
			mcp.DefaultNumber(25),
		),
	)
}

func (t *RepoTools) handleListPullRequests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	repository := req.GetString("repository", "")
	if project == "" || repository == "" {
		return mcp.NewToolResultError("'project' and 'repository' are required"), nil
	}
	filter := ado.PullRequestFilter{
		Status: req.GetString("status", "active"),
		Top:    req.GetInt("top", 25),
	}

	prs, err := t.client.ListPullRequests(ctx, project, repository, filter)
	if err != nil {
		return apiFailure("listing pull requests", err), nil
	}
	return jsonResult(prs)
}

func (t *RepoTools) createPullRequestDefinition() mcp.Tool {
	return mcp.NewTool("repo_create_pull_request",
		mcp.WithDescription("Create a pull request from a source branch into a target branch."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name or id")),
		mcp.WithString("source_ref", mcp.Required(), mcp.Description("Source branch, e.g. refs/heads/feature")),
		mcp.WithString("target_ref", mcp.Required(), mcp.Description("Target branch, e.g. refs/heads/main")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Pull request title")),
		mcp.WithString("description", mcp.Description("Pull request description")),
		mcp.WithBoolean("draft",
			mcp.Description("Create as a draft pull request. Defaults to false."),
			mcp.DefaultBool(false),
		),
	)
}

func (t *RepoTools) handleCreatePullRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	repository := req.GetString("repository", "")
	sourceRef := req.GetString("source_ref", "")
	targetRef := req.GetString("target_ref", "")
	title := req.GetString("title", "")
	if project == "" || repository == "" || sourceRef == "" || targetRef == "" || title == "" {
		return mcp.NewToolResultError("'project', 'repository', 'source_ref', 'target_ref' and 'title' are required"), nil
	}

	pr, err := t.client.CreatePullRequest(ctx, project, repository, ado.NewPullRequest{
		SourceRefName: sourceRef,
		TargetRefName: targetRef,
		Title:         title,
		Description:   req.GetString("description", ""),
		IsDraft:       req.GetBool("draft", false),
	})
	if err != nil {
		return apiFailure("creating pull request", err), nil
	}
	return jsonResult(pr)
}
