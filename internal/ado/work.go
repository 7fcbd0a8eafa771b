package ado

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// WorkItem carries the raw field map; tools pick the fields they surface.
type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url,omitempty"`
}

// WorkItemComment is one discussion comment on a work item.
type WorkItemComment struct {
	ID          int         `json:"id"`
	Text        string      `json:"text"`
	CreatedBy   IdentityRef `json:"createdBy"`
	CreatedDate time.Time   `json:"createdDate"`
}

type commentList struct {
	TotalCount int               `json:"totalCount"`
	Comments   []WorkItemComment `json:"comments"`
}

// patchOperation is one entry of a JSON Patch document, the write format of
// the work item tracking API.
type patchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// GetWorkItem fetches one work item, optionally restricted to fields.
func (c *Client) GetWorkItem(ctx context.Context, id int, fields []string) (*WorkItem, error) {
	query := url.Values{}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}
	var out WorkItem
	path := "/_apis/wit/workitems/" + strconv.Itoa(id)
	if err := c.get(ctx, path, query, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("getting work item %d: %w", id, err)
	}
	return &out, nil
}

// GetWorkItemsBatch fetches up to 200 work items in one call.
func (c *Client) GetWorkItemsBatch(ctx context.Context, ids []int, fields []string) ([]WorkItem, error) {
	payload := struct {
		IDs    []int    `json:"ids"`
		Fields []string `json:"fields,omitempty"`
	}{IDs: ids, Fields: fields}

	var out listResponse[WorkItem]
	if err := c.postJSON(ctx, "/_apis/wit/workitemsbatch", nil, apiVersion, payload, &out); err != nil {
		return nil, fmt.Errorf("getting work items batch: %w", err)
	}
	return out.Value, nil
}

// CreateWorkItem creates a work item of the given type with the given
// fields (reference names like System.Title).
func (c *Client) CreateWorkItem(ctx context.Context, project, itemType string, fields map[string]string) (*WorkItem, error) {
	document := make([]patchOperation, 0, len(fields))
	for name, value := range fields {
		document = append(document, patchOperation{
			Op:    "add",
			Path:  "/fields/" + name,
			Value: value,
		})
	}

	var out WorkItem
	path := projectPath(project, "/_apis/wit/workitems/$"+url.PathEscape(itemType))
	if err := c.postPatchDocument(ctx, path, apiVersion, document, &out); err != nil {
		return nil, fmt.Errorf("creating %s in %s: %w", itemType, project, err)
	}
	return &out, nil
}

// ListWorkItemComments lists the discussion comments of a work item.
func (c *Client) ListWorkItemComments(ctx context.Context, project string, id int) ([]WorkItemComment, error) {
	var out commentList
	path := projectPath(project, "/_apis/wit/workItems/"+strconv.Itoa(id)+"/comments")
	if err := c.get(ctx, path, nil, apiVersionPreview, &out); err != nil {
		return nil, fmt.Errorf("listing comments of work item %d: %w", id, err)
	}
	return out.Comments, nil
}

// AddWorkItemComment appends a comment to a work item's discussion.
func (c *Client) AddWorkItemComment(ctx context.Context, project string, id int, text string) (*WorkItemComment, error) {
	payload := struct {
		Text string `json:"text"`
	}{Text: text}

	var out WorkItemComment
	path := projectPath(project, "/_apis/wit/workItems/"+strconv.Itoa(id)+"/comments")
	if err := c.postJSON(ctx, path, nil, apiVersionPreview, payload, &out); err != nil {
		return nil, fmt.Errorf("commenting on work item %d: %w", id, err)
	}
	return &out, nil
}
