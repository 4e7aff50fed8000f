package payroll

import (
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// DaysPerMonth is the fixed divisor for the daily rate, whatever the
// calendar length of the month.
var DaysPerMonth = decimal.NewFromInt(30)

// SalaryInput carries everything Compute needs. It holds no references to
// stores so the same input can be recomputed for previews.
type SalaryInput struct {
	BaseSalary      decimal.Decimal
	Allowances      decimal.Decimal
	AbsentDays      decimal.Decimal
	ManualExpenses  []payroll.ManualExpense
	Plan            payroll.AllocationPlan
	ExtraDeductions decimal.Decimal
}

type SalaryCalculator struct {
}

func NewSalaryCalculator() *SalaryCalculator {
	return &SalaryCalculator{}
}

// AbsentDeduction returns baseSalary / 30 * absentDays rounded half away
// from zero to 2 decimal places, the precision the record is stored at.
// Multiplying first keeps whole results exact (3000 * 3 / 30 == 300).
func (c *SalaryCalculator) AbsentDeduction(baseSalary, absentDays decimal.Decimal) decimal.Decimal {
	if absentDays.IsZero() {
		return decimal.Zero
	}
	return baseSalary.Mul(absentDays).Div(DaysPerMonth).Round(2)
}

// Compute is pure and deterministic: no I/O, linked expenses ordered by
// liability id.
func (c *SalaryCalculator) Compute(in SalaryInput) payroll.Breakdown {
	absentDeduction := c.AbsentDeduction(in.BaseSalary, in.AbsentDays)

	manualTotal := decimal.Zero
	manual := make([]payroll.ManualExpense, 0, len(in.ManualExpenses))
	for _, e := range in.ManualExpenses {
		manualTotal = manualTotal.Add(e.Amount)
		manual = append(manual, e)
	}

	linked := make([]liability.Allocation, 0, len(in.Plan))
	for id, amount := range in.Plan {
		if !amount.IsPositive() {
			continue
		}
		linked = append(linked, liability.Allocation{LiabilityID: id, Amount: amount})
	}
	sort.Slice(linked, func(i, j int) bool { return linked[i].LiabilityID < linked[j].LiabilityID })

	dbTotal := decimal.Zero
	for _, a := range linked {
		dbTotal = dbTotal.Add(a.Amount)
	}

	totalDeductions := absentDeduction.Add(manualTotal).Add(dbTotal).Add(in.ExtraDeductions)
	gross := in.BaseSalary.Add(in.Allowances)
	net := gross.Sub(totalDeductions)

	shortfall := decimal.Zero
	if net.IsNegative() {
		shortfall = net.Neg()
		net = decimal.Zero
	}

	return payroll.Breakdown{
		BaseSalary:          in.BaseSalary,
		Allowances:          in.Allowances,
		AbsentDays:          in.AbsentDays,
		AbsentDeduction:     absentDeduction,
		ManualExpenses:      manual,
		ManualExpensesTotal: manualTotal,
		LinkedExpenses:      linked,
		DBExpensesTotal:     dbTotal,
		ExtraDeductions:     in.ExtraDeductions,
		TotalDeductions:     totalDeductions,
		GrossSalary:         gross,
		NetSalary:           net,
		Shortfall:           shortfall,
	}
}
