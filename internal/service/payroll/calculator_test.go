package payroll

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSalaryCalculator_AbsentDeduction(t *testing.T) {
	c := NewSalaryCalculator()

	tests := []struct {
		name string
		base string
		days string
		want string
	}{
		{"no absence", "3000", "0", "0"},
		{"three days", "3000", "3", "300"},
		{"full month", "3000", "30", "3000"},
		{"half day", "3000", "0.5", "50"},
		{"repeating third", "1000", "1", "33.33"},
		{"fractional days exact", "1000", "0.33", "11"},
		{"half rounds away from zero", "0.15", "1", "0.01"},
		{"fractional day", "2500", "0.33", "27.5"},
		{"two thirds", "1000", "2", "66.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.AbsentDeduction(d(tt.base), d(tt.days))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestSalaryCalculator_Compute_StoredPrecision(t *testing.T) {
	c := NewSalaryCalculator()
	b := c.Compute(SalaryInput{
		BaseSalary: d("1000"),
		AbsentDays: d("1"),
	})

	assert.True(t, b.AbsentDeduction.Equal(d("33.33")))
	assert.True(t, b.NetSalary.Equal(d("966.67")))
	for _, v := range []decimal.Decimal{b.AbsentDeduction, b.TotalDeductions, b.NetSalary} {
		assert.True(t, v.Equal(v.Round(2)), "%s has more than 2 decimal places", v)
	}
}

func TestSalaryCalculator_Compute_AbsenceOnly(t *testing.T) {
	c := NewSalaryCalculator()

	b := c.Compute(SalaryInput{
		BaseSalary: d("3000"),
		AbsentDays: d("3"),
	})

	assert.True(t, b.AbsentDeduction.Equal(d("300")))
	assert.True(t, b.TotalDeductions.Equal(d("300")))
	assert.True(t, b.GrossSalary.Equal(d("3000")))
	assert.True(t, b.NetSalary.Equal(d("2700")))
	assert.True(t, b.Shortfall.IsZero())
	assert.Empty(t, b.LinkedExpenses)
}

func TestSalaryCalculator_Compute_SumsEveryDeduction(t *testing.T) {
	c := NewSalaryCalculator()

	b := c.Compute(SalaryInput{
		BaseSalary: d("4000"),
		Allowances: d("500"),
		AbsentDays: d("1.5"),
		ManualExpenses: []payroll.ManualExpense{
			{Description: "uniform", Amount: d("40")},
			{Description: "fuel", Amount: d("60")},
		},
		Plan: payroll.AllocationPlan{
			"bbbbbbbb-0000-0000-0000-000000000002": d("300"),
			"aaaaaaaa-0000-0000-0000-000000000001": d("500"),
		},
		ExtraDeductions: d("25"),
	})

	assert.True(t, b.AbsentDeduction.Equal(d("200")))
	assert.True(t, b.ManualExpensesTotal.Equal(d("100")))
	assert.True(t, b.DBExpensesTotal.Equal(d("800")))
	assert.True(t, b.TotalDeductions.Equal(d("1125")))
	assert.True(t, b.GrossSalary.Equal(d("4500")))
	assert.True(t, b.NetSalary.Equal(d("3375")))

	// Linked expenses come out ordered by liability id.
	if assert.Len(t, b.LinkedExpenses, 2) {
		assert.Equal(t, "aaaaaaaa-0000-0000-0000-000000000001", b.LinkedExpenses[0].LiabilityID)
		assert.Equal(t, "bbbbbbbb-0000-0000-0000-000000000002", b.LinkedExpenses[1].LiabilityID)
	}
}

func TestSalaryCalculator_Compute_FloorsNetAtZero(t *testing.T) {
	c := NewSalaryCalculator()

	b := c.Compute(SalaryInput{
		BaseSalary:      d("3000"),
		ExtraDeductions: d("3500"),
	})

	assert.True(t, b.TotalDeductions.Equal(d("3500")))
	assert.True(t, b.NetSalary.IsZero())
	assert.True(t, b.Shortfall.Equal(d("500")))
}

func TestSalaryCalculator_Compute_SkipsZeroAllocations(t *testing.T) {
	c := NewSalaryCalculator()

	b := c.Compute(SalaryInput{
		BaseSalary: d("1000"),
		Plan: payroll.AllocationPlan{
			"aaaaaaaa-0000-0000-0000-000000000001": decimal.Zero,
		},
	})

	assert.Empty(t, b.LinkedExpenses)
	assert.True(t, b.DBExpensesTotal.IsZero())
	assert.True(t, b.NetSalary.Equal(d("1000")))
}

func TestSalaryCalculator_Compute_IsDeterministic(t *testing.T) {
	c := NewSalaryCalculator()
	in := SalaryInput{
		BaseSalary: d("2500"),
		AbsentDays: d("2"),
		Plan: payroll.AllocationPlan{
			"cccccccc-0000-0000-0000-000000000003": d("10"),
			"aaaaaaaa-0000-0000-0000-000000000001": d("20"),
			"bbbbbbbb-0000-0000-0000-000000000002": d("30"),
		},
	}

	first := c.Compute(in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.LinkedExpenses, c.Compute(in).LinkedExpenses)
	}
}
