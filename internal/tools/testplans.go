package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/devops-mcp/adomcp/internal/ado"
)

// TestPlanClient is the slice of the ADO client the test plan tools need.
type TestPlanClient interface {
	ListTestPlans(ctx context.Context, project string) ([]ado.TestPlan, error)
	CreateTestPlan(ctx context.Context, project string, in ado.NewTestPlan) (*ado.TestPlan, error)
	ListTestCases(ctx context.Context, project string, planID, suiteID int) ([]ado.TestCase, error)
}

// TestPlanTools is the test plans domain of the tool surface.
type TestPlanTools struct {
	client TestPlanClient
}

// NewTestPlanTools creates the test plan tools over the given client.
func NewTestPlanTools(client TestPlanClient) *TestPlanTools {
	return &TestPlanTools{client: client}
}

// Register adds every test plan tool to the server.
func (t *TestPlanTools) Register(s *server.MCPServer) {
	s.AddTool(t.listPlansDefinition(), t.handleListPlans)
	s.AddTool(t.createPlanDefinition(), t.handleCreatePlan)
	s.AddTool(t.listTestCasesDefinition(), t.handleListTestCases)
}

func (t *TestPlanTools) listPlansDefinition() mcp.Tool {
	return mcp.NewTool("testplan_list_test_plans",
		mcp.WithDescription("List the test plans of a project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
}

func (t *TestPlanTools) handleListPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}
	plans, err := t.client.ListTestPlans(ctx, project)
	if err != nil {
		return apiFailure("listing test plans", err), nil
	}
	return jsonResult(plans)
}

func (t *TestPlanTools) createPlanDefinition() mcp.Tool {
	return mcp.NewTool("testplan_create_test_plan",
		mcp.WithDescription("Create a test plan in a project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Test plan name")),
		mcp.WithString("area_path", mcp.Description("Area path for the plan")),
		mcp.WithString("iteration", mcp.Description("Iteration path for the plan")),
		mcp.WithString("start_date", mcp.Description("Plan start date, ISO 8601")),
		mcp.WithString("end_date", mcp.Description("Plan end date, ISO 8601")),
	)
}

func (t *TestPlanTools) handleCreatePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	name := req.GetString("name", "")
	if project == "" || name == "" {
		return mcp.NewToolResultError("'project' and 'name' are required"), nil
	}
	plan, err := t.client.CreateTestPlan(ctx, project, ado.NewTestPlan{
		Name:      name,
		AreaPath:  req.GetString("area_path", ""),
		Iteration: req.GetString("iteration", ""),
		StartDate: req.GetString("start_date", ""),
		EndDate:   req.GetString("end_date", ""),
	})
	if err != nil {
		return apiFailure("creating test plan", err), nil
	}
	return jsonResult(plan)
}

func (t *TestPlanTools) listTestCasesDefinition() mcp.Tool {
	return mcp.NewTool("testplan_list_test_cases_by_plan",
		mcp.WithDescription("List the test cases of a suite within a test plan."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
		mcp.WithNumber("plan_id", mcp.Required(), mcp.Description("Test plan id")),
		mcp.WithNumber("suite_id", mcp.Required(), mcp.Description("Test suite id")),
	)
}

func (t *TestPlanTools) handleListTestCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	planID := req.GetInt("plan_id", 0)
	suiteID := req.GetInt("suite_id", 0)
	if project == "" || planID <= 0 || suiteID <= 0 {
		return mcp.NewToolResultError("'project', a positive 'plan_id' and a positive 'suite_id' are required"), nil
	}
	cases, err := t.client.ListTestCases(ctx, project, planID, suiteID)
	if err != nil {
		return apiFailure("listing test cases", err), nil
	}
	return jsonResult(cases)
}
