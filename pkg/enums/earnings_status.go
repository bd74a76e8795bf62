package enums

import "fmt"

// EarningsStatus tracks how far a vendor earnings row has progressed toward payout.
type EarningsStatus string

const (
	EarningsStatusPending   EarningsStatus = "pending"
	EarningsStatusAvailable EarningsStatus = "available"
	EarningsStatusPaid      EarningsStatus = "paid"
)

var validEarningsStatuses = []EarningsStatus{
	EarningsStatusPending,
	EarningsStatusAvailable,
	EarningsStatusPaid,
}

// String implements fmt.Stringer.
func (e EarningsStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningsStatus.
func (e EarningsStatus) IsValid() bool {
	for _, candidate := range validEarningsStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEarningsStatus converts raw input into an EarningsStatus.
func ParseEarningsStatus(value string) (EarningsStatus, error) {
	for _, candidate := range validEarningsStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earnings status %q", value)
}
