package ado

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ProjectRef names a project owning a resource.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentityRef is the trimmed identity shape surfaced to tools.
type IdentityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
}

// Repository is a git repository in a project.
type Repository struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	DefaultBranch string     `json:"defaultBranch,omitempty"`
	RemoteURL     string     `json:"remoteUrl,omitempty"`
	WebURL        string     `json:"webUrl,omitempty"`
	IsDisabled    bool       `json:"isDisabled,omitempty"`
	Project       ProjectRef `json:"project"`
}

// Ref is a git ref, as returned by the refs API.
type Ref struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

// PullRequest is the trimmed pull request shape surfaced to tools.
type PullRequest struct {
	PullRequestID int         `json:"pullRequestId"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Status        string      `json:"status"`
	IsDraft       bool        `json:"isDraft,omitempty"`
	SourceRefName string      `json:"sourceRefName"`
	TargetRefName string      `json:"targetRefName"`
	CreatedBy     IdentityRef `json:"createdBy"`
	CreationDate  time.Time   `json:"creationDate"`
}

// NewPullRequest are the fields accepted when opening a pull request.
type NewPullRequest struct {
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	IsDraft       bool   `json:"isDraft,omitempty"`
}

// PullRequestFilter narrows ListPullRequests.
type PullRequestFilter struct {
	// Status filters by state: active, completed, abandoned, or all.
	Status string
	// Top caps the number of results; zero means the server default.
	Top int
}

// ListRepositories lists the repositories of a project.
func (c *Client) ListRepositories(ctx context.Context, project string) ([]Repository, error) {
	var out listResponse[Repository]
	path := projectPath(project, "/_apis/git/repositories")
	if err := c.get(ctx, path, nil, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("listing repositories in %s: %w", project, err)
	}
	return out.Value, nil
}

// GetRepository fetches one repository by name or id.
func (c *Client) GetRepository(ctx context.Context, project, nameOrID string) (*Repository, error) {
	var out Repository
	path := projectPath(project, "/_apis/git/repositories/"+url.PathEscape(nameOrID))
	if err := c.get(ctx, path, nil, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("getting repository %s: %w", nameOrID, err)
	}
	return &out, nil
}

// ListBranches lists the branch refs of a repository.
func (c *Client) ListBranches(ctx context.Context, project, repository string) ([]Ref, error) {
	query := url.Values{"filter": {"heads/"}}
	var out listResponse[Ref]
	path := projectPath(project, "/_apis/git/repositories/"+url.PathEscape(repository)+"/refs")
	if err := c.get(ctx, path, query, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", repository, err)
	}
	return out.Value, nil
}

// ListPullRequests lists pull requests of a repository.
func (c *Client) ListPullRequests(ctx context.Context, project, repository string, filter PullRequestFilter) ([]PullRequest, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("searchCriteria.status", filter.Status)
	}
	if filter.Top > 0 {
		query.Set("$top", strconv.Itoa(filter.Top))
	}
	var out listResponse[PullRequest]
	path := projectPath(project, "/_apis/git/repositories/"+url.PathEscape(repository)+"/pullrequests")
	if err := c.get(ctx, path, query, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("listing pull requests of %s: %w", repository, err)
	}
	return out.Value, nil
}

// CreatePullRequest opens a pull request.
func (c *Client) CreatePullRequest(ctx context.Context, project, repository string, in NewPullRequest) (*PullRequest, error) {
	var out PullRequest
	path := projectPath(project, "/_apis/git/repositories/"+url.PathEscape(repository)+"/pullrequests")
	if err := c.postJSON(ctx, path, nil, apiVersion, in, &out); err != nil {
		return nil, fmt.Errorf("creating pull request in %s: %w", repository, err)
	}
	return &out, nil
}
