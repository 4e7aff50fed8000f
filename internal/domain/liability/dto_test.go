package liability

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLiabilityRequest_Validate_Amount(t *testing.T) {
	tests := []struct {
		amount string
		ok     bool
	}{
		{"500", true},
		{"99.99", true},
		{"99.995", false},
		{"0", false},
		{"1000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			req := CreateLiabilityRequest{
				EmployeeID: "00000000-0000-0000-0000-0000000000e1",
				Kind:       string(KindLoan),
				Amount:     decimal.RequireFromString(tt.amount),
			}
			err := req.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), "amount")
		})
	}
}
