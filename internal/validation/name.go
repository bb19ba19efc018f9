package validation

import (
	"errors"
	"strings"
)

// ValidateGoalName requires a name that is not blank.
func ValidateGoalName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}
