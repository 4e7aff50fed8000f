package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	employeesvc "github.com/cmlabs-hris/payroll-engine/internal/service/employee"
	liabilitysvc "github.com/cmlabs-hris/payroll-engine/internal/service/liability"
	payrollsvc "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	salarylistsvc "github.com/cmlabs-hris/payroll-engine/internal/service/salarylist"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	routerEmployeeID = "0190a5e0-0000-7000-8000-0000000000e1"
	routerProjectID  = "0190a5e0-0000-7000-8000-0000000000b1"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()

	store := memory.NewStore()
	base := decimal.NewFromInt(3000)
	store.PutEmployee(employee.Employee{ID: routerEmployeeID, FullName: "Ahmed Saleh", BaseSalary: &base})
	store.PutProject(project.Project{ID: routerProjectID, Name: "Tower B"})

	payrollRepo := memory.NewPayrollRepository(store)
	projectRepo := memory.NewProjectRepository(store)
	directory := employeesvc.NewDirectory(memory.NewEmployeeRepository(store), nil)
	ledger := liabilitysvc.NewLiabilityService(store, memory.NewLiabilityRepository(store), directory)
	listRepo := memory.NewSalaryListRepository(store)
	sheets := salarylistsvc.NewSalaryListService(listRepo, payrollRepo, projectRepo)
	payrolls := payrollsvc.NewPayrollService(store, payrollRepo, ledger, directory, projectRepo, listRepo, sheets, payroll.NoopEventPublisher())

	return NewRouter(RouterOptions{AllowedOrigins: []string{"*"}},
		NewPayrollHandler(payrolls),
		NewLiabilityHandler(ledger),
		NewSalaryListHandler(sheets),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestRouter_PayrollRunLifecycle(t *testing.T) {
	r := setupRouter(t)

	status, env := do(t, r, http.MethodPost, "/api/v1/liabilities", map[string]any{
		"employee_id": routerEmployeeID,
		"kind":        "loan",
		"amount":      "500",
		"date":        "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env = do(t, r, http.MethodGet, "/api/v1/employees/"+routerEmployeeID+"/allocation-plan", nil)
	require.Equal(t, http.StatusOK, status)
	var plan payroll.AllocationPlanResponse
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.True(t, plan.Total.Equal(decimal.NewFromInt(500)))

	status, env = do(t, r, http.MethodPost, "/api/v1/payroll-runs", map[string]any{
		"employee_id": routerEmployeeID,
		"project_id":  routerProjectID,
		"period":      map[string]string{"month_ref": "2024-05"},
		"absent_days": 3,
	})
	require.Equal(t, http.StatusCreated, status)
	var run payroll.PayrollRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, "pending", run.Status)
	assert.True(t, run.NetSalary.Equal(decimal.NewFromInt(2200)))

	status, env = do(t, r, http.MethodGet, "/api/v1/payroll-runs/draft?employee_id="+routerEmployeeID, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, r, http.MethodPut, "/api/v1/payroll-runs/"+run.ID+"/status", map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, r, http.MethodPut, "/api/v1/payroll-runs/"+run.ID+"/status", map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	status, env = do(t, r, http.MethodDelete, "/api/v1/payroll-runs/"+run.ID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DELETION_BLOCKED", env.Error.Code)

	status, env = do(t, r, http.MethodGet, "/api/v1/employees/"+routerEmployeeID+"/liabilities/outstanding", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = do(t, r, http.MethodGet, "/api/v1/payroll-runs/draft?employee_id="+routerEmployeeID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_ValidationErrors(t *testing.T) {
	r := setupRouter(t)

	status, env := do(t, r, http.MethodPost, "/api/v1/payroll-runs", map[string]any{
		"employee_id": "nope",
		"period":      map[string]string{"month_ref": "May"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "employee_id")
	assert.Contains(t, env.Error.Details, "project_id")
	assert.Contains(t, env.Error.Details, "period.month_ref")

	status, env = do(t, r, http.MethodPut, "/api/v1/payroll-runs/0190a5e0-0000-7000-8000-0000000000ff/status", map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestRouter_RejectsAmountsBeyondStoredPrecision(t *testing.T) {
	r := setupRouter(t)

	status, env := do(t, r, http.MethodPost, "/api/v1/payroll-runs", map[string]any{
		"employee_id": routerEmployeeID,
		"project_id":  routerProjectID,
		"period":      map[string]string{"month_ref": "2024-05"},
		"absent_days": "0.333",
		"allowances":  "12345678901234.5",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "absent_days")
	assert.Contains(t, env.Error.Details, "allowances")

	status, env = do(t, r, http.MethodPost, "/api/v1/liabilities", map[string]any{
		"employee_id": routerEmployeeID,
		"kind":        "advance",
		"amount":      "99.995",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "amount")

	status, _ = do(t, r, http.MethodPost, "/api/v1/payroll-runs", map[string]any{
		"employee_id":    routerEmployeeID,
		"project_id":     routerProjectID,
		"period":         map[string]string{"month_ref": "2024-05"},
		"salary_list_id": "0190a5e0-0000-7000-8000-0000000000ff",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_NotFound(t *testing.T) {
	r := setupRouter(t)

	status, env := do(t, r, http.MethodGet, "/api/v1/payroll-runs/0190a5e0-0000-7000-8000-0000000000ff", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = do(t, r, http.MethodGet, "/api/v1/salary-lists/0190a5e0-0000-7000-8000-0000000000ff/view", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, r, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_MalformedBody(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll-runs", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
