package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCircleNameLength        = 120
	MaxCircleDescriptionLength = 2000
)

// ValidateCircleName checks a group or community name after trimming.
func ValidateCircleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxCircleNameLength {
		return fmt.Errorf("name must not exceed %d characters", MaxCircleNameLength)
	}
	return nil
}

// ValidateCircleDescription bounds the free-text description.
func ValidateCircleDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxCircleDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxCircleDescriptionLength)
	}
	return nil
}
