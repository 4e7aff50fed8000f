package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type AllocationPlanner struct {
}

func NewAllocationPlanner() *AllocationPlanner {
	return &AllocationPlanner{}
}

// Clamp bounds requested to [0, remaining]. Out-of-range requests are
// corrected silently.
func (p *AllocationPlanner) Clamp(l liability.Liability, requested decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, decimal.Min(requested, l.Remaining()))
}

// Propose settles every outstanding liability in full.
func (p *AllocationPlanner) Propose(outstanding []liability.Liability) payroll.AllocationPlan {
	plan := make(payroll.AllocationPlan, len(outstanding))
	for _, l := range outstanding {
		remaining := l.Remaining()
		if remaining.IsPositive() {
			plan[l.ID] = remaining
		}
	}
	return plan
}

// Plan builds the plan for a run. A nil overrides map means the default
// proposal; otherwise only the listed liabilities are allocated, each
// clamped. Zero allocations are dropped. Ids outside outstanding yield
// payroll.ErrUnknownLiability.
func (p *AllocationPlanner) Plan(outstanding []liability.Liability, overrides payroll.AllocationPlan) (payroll.AllocationPlan, error) {
	if overrides == nil {
		return p.Propose(outstanding), nil
	}

	byID := make(map[string]liability.Liability, len(outstanding))
	for _, l := range outstanding {
		byID[l.ID] = l
	}

	plan := make(payroll.AllocationPlan, len(overrides))
	for id, requested := range overrides {
		l, ok := byID[id]
		if !ok {
			if requested.IsPositive() {
				return nil, payroll.ErrUnknownLiability
			}
			continue
		}
		accepted := p.Clamp(l, requested)
		if accepted.IsPositive() {
			plan[id] = accepted
		}
	}
	return plan, nil
}

// Proposals renders the default proposal alongside each liability.
func (p *AllocationPlanner) Proposals(outstanding []liability.Liability) ([]payroll.AllocationProposal, decimal.Decimal) {
	items := make([]payroll.AllocationProposal, 0, len(outstanding))
	total := decimal.Zero
	for _, l := range outstanding {
		proposed := l.Remaining()
		items = append(items, payroll.AllocationProposal{
			LiabilityID: l.ID,
			Kind:        string(l.Kind),
			Description: l.Description,
			Amount:      l.Amount,
			PaidAmount:  l.PaidAmount,
			Remaining:   l.Remaining(),
			Proposed:    proposed,
		})
		total = total.Add(proposed)
	}
	return items, total
}
