package salarylist

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	projectID = "0190a5e0-0000-7000-8000-0000000000b1"
	workerA   = "0190a5e0-0000-7000-8000-0000000000e1"
	workerB   = "0190a5e0-0000-7000-8000-0000000000e2"
)

type salaryListTestEnv struct {
	svc         salarylist.SalaryListService
	listRepo    salarylist.SalaryListRepository
	payrollRepo payroll.PayrollRepository
}

func setupSalaryListTest(t *testing.T) *salaryListTestEnv {
	t.Helper()
	store := memory.NewStore()
	store.PutProject(project.Project{ID: projectID, Name: "Tower B"})

	listRepo := memory.NewSalaryListRepository(store)
	payrollRepo := memory.NewPayrollRepository(store)
	return &salaryListTestEnv{
		svc:         NewSalaryListService(listRepo, payrollRepo, memory.NewProjectRepository(store)),
		listRepo:    listRepo,
		payrollRepo: payrollRepo,
	}
}

func createRequest() salarylist.CreateSalaryListRequest {
	return salarylist.CreateSalaryListRequest{
		ProjectID:   projectID,
		ForemanName: "Khalid",
		MonthRef:    "2024-05",
		Entries: []salarylist.CreateEntryRequest{
			{EmployeeID: workerA, Name: "Worker A", Salary: decimal.NewFromInt(2000)},
			{EmployeeID: workerB, Name: "Worker B", Salary: decimal.NewFromInt(2500)},
		},
	}
}

// paidRun stores a paid record for employeeID linked to listID.
func (e *salaryListTestEnv) paidRun(t *testing.T, listID, employeeID string, net string) string {
	t.Helper()
	ctx := context.Background()
	rec, err := e.payrollRepo.Create(ctx, payroll.SalaryRecord{
		EmployeeID:   employeeID,
		ProjectID:    projectID,
		Period:       payroll.Period{MonthRef: "2024-05"},
		SalaryListID: &listID,
		Breakdown:    payroll.Breakdown{NetSalary: decimal.RequireFromString(net)},
		Status:       payroll.PayrollStatusDraft,
	})
	require.NoError(t, err)
	_, err = e.payrollRepo.MarkPaid(ctx, rec.ID, rec.CreatedAt)
	require.NoError(t, err)
	return rec.ID
}

func TestSalaryListService_Create(t *testing.T) {
	env := setupSalaryListTest(t)
	ctx := context.Background()

	resp, err := env.svc.Create(ctx, createRequest())

	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
	assert.True(t, resp.TotalSalary.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, 0, resp.PaidCount)

	_, err = env.svc.Create(ctx, createRequest())
	assert.ErrorIs(t, err, salarylist.ErrSalaryListDuplicate)
}

func TestSalaryListService_Create_Validation(t *testing.T) {
	env := setupSalaryListTest(t)

	req := createRequest()
	req.Entries[1].EmployeeID = workerA

	_, err := env.svc.Create(context.Background(), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "entries[1].employee_id", verrs[0].Field)
}

func TestSalaryListService_View_DerivesStatusFromPaidRuns(t *testing.T) {
	env := setupSalaryListTest(t)
	ctx := context.Background()

	list, err := env.svc.Create(ctx, createRequest())
	require.NoError(t, err)
	runID := env.paidRun(t, list.ID, workerA, "1900")

	view, err := env.svc.View(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.PaidCount)

	byEmployee := map[string]salarylist.EntryResponse{}
	for _, e := range view.Entries {
		byEmployee[e.EmployeeID] = e
	}
	assert.Equal(t, "paid", byEmployee[workerA].Status)
	require.NotNil(t, byEmployee[workerA].PayrollRunID)
	assert.Equal(t, runID, *byEmployee[workerA].PayrollRunID)
	assert.True(t, byEmployee[workerA].NetSalary.Equal(decimal.NewFromInt(1900)))
	assert.Equal(t, "pending", byEmployee[workerB].Status)

	// The stored entry still lags until synced.
	stored, err := env.svc.Get(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PaidCount)
}

func TestSalaryListService_SyncPending(t *testing.T) {
	env := setupSalaryListTest(t)
	ctx := context.Background()

	list, err := env.svc.Create(ctx, createRequest())
	require.NoError(t, err)
	env.paidRun(t, list.ID, workerA, "2000")

	synced, err := env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	stored, err := env.svc.Get(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PaidCount)

	synced, err = env.svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
}

func TestSalaryListService_MarkEntryPaid(t *testing.T) {
	env := setupSalaryListTest(t)
	ctx := context.Background()

	list, err := env.svc.Create(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, env.svc.MarkEntryPaid(ctx, list.ID, workerB))
	require.NoError(t, env.svc.MarkEntryPaid(ctx, list.ID, workerB))

	err = env.svc.MarkEntryPaid(ctx, list.ID, "0190a5e0-0000-7000-8000-0000000000ff")
	assert.ErrorIs(t, err, salarylist.ErrEntryNotFound)

	err = env.svc.MarkEntryPaid(ctx, "0190a5e0-0000-7000-8000-0000000000fe", workerB)
	assert.ErrorIs(t, err, salarylist.ErrSalaryListNotFound)
}
