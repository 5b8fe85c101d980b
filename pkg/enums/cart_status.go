package enums

import "fmt"

// CartStatus tracks whether a cart record is live or already torn down.
type CartStatus string

const (
	CartStatusActive  CartStatus = "active"
	CartStatusCleared CartStatus = "cleared"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusCleared,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
