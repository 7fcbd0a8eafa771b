package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/devops-mcp/adomcp/internal/ado"
)

// batchLimit matches the work item batch API's server-side cap.
const batchLimit = 200

// WorkClient is the slice of the ADO client the work item tools need.
type WorkClient interface {
	GetWorkItem(ctx context.Context, id int, fields []string) (*ado.WorkItem, error)
	GetWorkItemsBatch(ctx context.Context, ids []int, fields []string) ([]ado.WorkItem, error)
	CreateWorkItem(ctx context.Context, project, itemType string, fields map[string]string) (*ado.WorkItem, error)
	ListWorkItemComments(ctx context.Context, project string, id int) ([]ado.WorkItemComment, error)
	AddWorkItemComment(ctx context.Context, project string, id int, text string) (*ado.WorkItemComment, error)
}

// WorkTools is the work item tracking domain of the tool surface.
type WorkTools struct {
	client WorkClient
}

// NewWorkTools creates the work item tools over the given client.
func NewWorkTools(client WorkClient) *WorkTools {
	return &WorkTools{client: client}
}

// Register adds every work item tool to the server.
func (t *WorkTools) Register(s *server.MCPServer) {
	s.AddTool(t.getWorkItemDefinition(), t.handleGetWorkItem)
	s.AddTool(t.getBatchDefinition(), t.handleGetBatch)
	s.AddTool(t.createWorkItemDefinition(), t.handleCreateWorkItem)
	s.AddTool(t.listCommentsDefinition(), t.handleListComments)
	s.AddTool(t.addCommentDefinition(), t.handleAddComment)
}

func (t *WorkTools) getWorkItemDefinition() mcp.Tool {
	return mcp.NewTool("wit_get_work_item",
		mcp.WithDescription("Get a single work item by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
		mcp.WithString("fields",
			mcp.Description("Comma-separated field reference names to return, e.g. System.Title,System.State. Returns all fields when omitted."),
		),
	)
}

func (t *WorkTools) handleGetWorkItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'id' is required and must be a positive integer"), nil
	}
	item, err := t.client.GetWorkItem(ctx, id, splitFields(req.GetString("fields", "")))
	if err != nil {
		return apiFailure("getting work item", err), nil
	}
	return jsonResult(item)
}

func (t *WorkTools) getBatchDefinition() mcp.Tool {
	return mcp.NewTool("wit_get_work_items_batch_by_ids",
		mcp.WithDescription("Get up to 200 work items in one call."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated work item ids, e.g. 12,13,44")),
		mcp.WithString("fields",
			mcp.Description("Comma-separated field reference names to return. Returns all fields when omitted."),
		),
	)
}

func (t *WorkTools) handleGetBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := parseIDList(req.GetString("ids", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := t.client.GetWorkItemsBatch(ctx, ids, splitFields(req.GetString("fields", "")))
	if err != nil {
		return apiFailure("getting work items batch", err), nil
	}
	return jsonResult(items)
}

func (t *WorkTools) createWorkItemDefinition() mcp.Tool {
	return mcp.NewTool("wit_create_work_item",
		mcp.WithDescription("Create a work item of a given type, e.g. Bug or Task."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Work item type, e.g. Bug, Task, User Story")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Work item title")),
		mcp.WithString("description", mcp.Description("Work item description")),
		mcp.WithString("area_path", mcp.Description("Area path")),
		mcp.WithString("iteration_path", mcp.Description("Iteration path")),
	)
}

func (t *WorkTools) handleCreateWorkItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	itemType := req.GetString("type", "")
	title := req.GetString("title", "")
	if project == "" || itemType == "" || title == "" {
		return mcp.NewToolResultError("'project', 'type' and 'title' are required"), nil
	}

	fields := map[string]string{"System.Title": title}
	if v := req.GetString("description", ""); v != "" {
		fields["System.Description"] = v
	}
	if v := req.GetString("area_path", ""); v != "" {
		fields["System.AreaPath"] = v
	}
	if v := req.GetString("iteration_path", ""); v != "" {
		fields["System.IterationPath"] = v
	}

	item, err := t.client.CreateWorkItem(ctx, project, itemType, fields)
	if err != nil {
		return apiFailure("creating work item", err), nil
	}
	return jsonResult(item)
}

func (t *WorkTools) listCommentsDefinition() mcp.Tool {
	return mcp.NewTool("wit_list_work_item_comments",
		mcp.WithDescription("List the discussion comments of a work item."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
	)
}

func (t *WorkTools) handleListComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	id := req.GetInt("id", 0)
	if project == "" || id <= 0 {
		return mcp.NewToolResultError("'project' and a positive 'id' are required"), nil
	}
	comments, err := t.client.ListWorkItemComments(ctx, project, id)
	if err != nil {
		return apiFailure("listing work item comments", err), nil
	}
	return jsonResult(comments)
}

func (t *WorkTools) addCommentDefinition() mcp.Tool {
	return mcp.NewTool("wit_add_work_item_comment",
		mcp.WithDescription("Add a comment to a work item's discussion."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	)
}

func (t *WorkTools) handleAddComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	id := req.GetInt("id", 0)
	text := req.GetString("text", "")
	if project == "" || id <= 0 || text == "" {
		return mcp.NewToolResultError("'project', a positive 'id' and 'text' are required"), nil
	}
	comment, err := t.client.AddWorkItemComment(ctx, project, id, text)
	if err != nil {
		return apiFailure("adding work item comment", err), nil
	}
	return jsonResult(comment)
}

func splitFields(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if field := strings.TrimSpace(part); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

func parseIDList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("'ids' is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("'ids' contains %q, which is not a positive integer", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("'ids' is required")
	}
	if len(ids) > batchLimit {
		return nil, fmt.Errorf("'ids' lists %d items; the batch API accepts at most %d", len(ids), batchLimit)
	}
	return ids, nil
}
