package validate

import (
	"fmt"
	"time"
)

// ValidatePortRange validates that a port number is within 1-65535.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidateRequiredString validates that a string field is not empty.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveTimeout validates that a duration is positive (> 0).
// Command timeouts, HTTP timeouts and the serve interval all go through it.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// ValidateEmailList validates a non-empty list of recipient addresses.
func ValidateEmailList(addrs []string, fieldName string) error {
	if len(addrs) == 0 {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	for i, addr := range addrs {
		if err := ValidateField(addr, "required,email"); err != nil {
			return fmt.Errorf("%s: invalid address at index %d: %q", fieldName, i, addr)
		}
	}
	return nil
}

// ValidateRange validates that min <= max for an inclusive integer range.
func ValidateRange(lo, hi int, name string) error {
	if lo > hi {
		return fmt.Errorf("%s: minimum %d is greater than maximum %d", name, lo, hi)
	}
	return nil
}
