package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUID validation (any version)
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

var monthRefRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsValidMonthRef checks a pay period reference in "YYYY-MM" format.
func IsValidMonthRef(ref string) bool {
	return monthRefRegex.MatchString(ref)
}

// IsNonNegative reports whether d >= 0.
func IsNonNegative(d decimal.Decimal) bool {
	return !d.IsNegative()
}

// Money and day counts are stored as NUMERIC(14,2) and NUMERIC(6,2).
var (
	MaxMoney = decimal.New(1, 12)
	MaxDays  = decimal.New(1, 4)
)

// HasScaleAtMost reports whether d has no significant digits beyond the
// given number of decimal places. 1.50 and 1.500 both pass for places=2.
func HasScaleAtMost(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// MoneyError returns the message for an invalid amount, or "" when d fits
// the money columns.
func MoneyError(d decimal.Decimal) string {
	if !HasScaleAtMost(d, 2) {
		return "must have at most 2 decimal places"
	}
	if d.Abs().GreaterThanOrEqual(MaxMoney) {
		return "must be less than 1000000000000"
	}
	return ""
}

// DaysError is MoneyError for day counts.
func DaysError(d decimal.Decimal) string {
	if !HasScaleAtMost(d, 2) {
		return "must have at most 2 decimal places"
	}
	if d.Abs().GreaterThanOrEqual(MaxDays) {
		return "must be less than 10000"
	}
	return ""
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
