package validation

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// ValidateDate checks for a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return ErrInvalidDate
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
