package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/devops-mcp/adomcp/internal/ado"
)

type fakeTestPlanClient struct {
	plans   []ado.TestPlan
	cases   []ado.TestCase
	created *ado.NewTestPlan
	err     error
}

func (f *fakeTestPlanClient) ListTestPlans(_ context.Context, project string) ([]ado.TestPlan, error) {
	return f.plans, f.err
}

func (f *fakeTestPlanClient) CreateTestPlan(_ context.Context, project string, in ado.NewTestPlan) (*ado.TestPlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &in
	return &ado.TestPlan{ID: 5, Name: in.Name}, nil
}

func (f *fakeTestPlanClient) ListTestCases(_ context.Context, project string, planID, suiteID int) ([]ado.TestCase, error) {
	return f.cases, f.err
}

func TestHandleListPlans(t *testing.T) {
	tool := NewTestPlanTools(&fakeTestPlanClient{plans: []ado.TestPlan{{ID: 1, Name: "Smoke"}}})

	result, err := tool.handleListPlans(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
	}))
	if err != nil {
		t.Fatalf("handleListPlans: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), `"name": "Smoke"`) {
		t.Errorf("result missing plan name: %s", getResultText(result))
	}
}

func TestHandleCreatePlan_RequiresName(t *testing.T) {
	tool := NewTestPlanTools(&fakeTestPlanClient{})

	result, err := tool.handleCreatePlan(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
	}))
	if err != nil {
		t.Fatalf("handleCreatePlan: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatalf("expected tool error for missing name")
	}
}

func TestHandleListTestCases_Validation(t *testing.T) {
	tool := NewTestPlanTools(&fakeTestPlanClient{err: errors.New("should not be called")})

	result, err := tool.handleListTestCases(context.Background(), callRequest(map[string]interface{}{
		"project": "Fabrikam",
		"plan_id": 3,
		// suite_id missing
	}))
	if err != nil {
		t.Fatalf("handleListTestCases: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatalf("expected tool error for missing suite_id")
	}
}
