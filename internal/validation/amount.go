package validation

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses user input such as "1,250.50". Thousands separators
// are ignored. Empty or non-numeric input is an error.
func ParseAmount(s string) (float64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if raw == "" || raw == "." {
		return 0, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	f, _ := d.Float64()
	return f, nil
}

// ValidateGoalAmount accepts any finite amount >= 0.
func ValidateGoalAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateEntryAmount accepts any finite amount > 0. Zero is not a
// meaningful entry.
func ValidateEntryAmount(amount float64) error {
	if ValidateGoalAmount(amount) != nil || amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}
