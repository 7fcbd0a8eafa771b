package ado

import (
	"context"
	"fmt"
	"strconv"
)

// TestPlan is the trimmed test plan shape surfaced to tools.
type TestPlan struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state,omitempty"`
	AreaPath  string `json:"areaPath,omitempty"`
	Iteration string `json:"iteration,omitempty"`
}

// NewTestPlan are the fields accepted when creating a test plan.
type NewTestPlan struct {
	Name      string `json:"name"`
	AreaPath  string `json:"areaPath,omitempty"`
	Iteration string `json:"iteration,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// NamedRef is a minimal id/name reference.
type NamedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TestCase is a test case membership inside a suite.
type TestCase struct {
	WorkItem NamedRef `json:"workItem"`
	Order    int      `json:"order,omitempty"`
}

// ListTestPlans lists the test plans of a project.
func (c *Client) ListTestPlans(ctx context.Context, project string) ([]TestPlan, error) {
	var out listResponse[TestPlan]
	path := projectPath(project, "/_apis/testplan/plans")
	if err := c.get(ctx, path, nil, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("listing test plans in %s: %w", project, err)
	}
	return out.Value, nil
}

// CreateTestPlan creates a test plan.
func (c *Client) CreateTestPlan(ctx context.Context, project string, in NewTestPlan) (*TestPlan, error) {
	var out TestPlan
	path := projectPath(project, "/_apis/testplan/plans")
	if err := c.postJSON(ctx, path, nil, apiVersion, in, &out); err != nil {
		return nil, fmt.Errorf("creating test plan in %s: %w", project, err)
	}
	return &out, nil
}

// ListTestCases lists the test cases of a suite within a plan.
func (c *Client) ListTestCases(ctx context.Context, project string, planID, suiteID int) ([]TestCase, error) {
	var out listResponse[TestCase]
	path := projectPath(project,
		"/_apis/testplan/Plans/"+strconv.Itoa(planID)+"/Suites/"+strconv.Itoa(suiteID)+"/TestCase")
	if err := c.get(ctx, path, nil, apiVersion, &out); err != nil {
		return nil, fmt.Errorf("listing test cases of plan %d suite %d: %w", planID, suiteID, err)
	}
	return out.Value, nil
}
