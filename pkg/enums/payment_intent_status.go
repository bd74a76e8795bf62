package enums

// PaymentIntentStatus mirrors the processor-side state of a payment intent.
// No gateway is wired; the status field is recorded for the order history.
type PaymentIntentStatus string

const (
	PaymentIntentStatusPending    PaymentIntentStatus = "pending"
	PaymentIntentStatusProcessing PaymentIntentStatus = "processing"
	PaymentIntentStatusSucceeded  PaymentIntentStatus = "succeeded"
	PaymentIntentStatusFailed     PaymentIntentStatus = "failed"
	PaymentIntentStatusCancelled  PaymentIntentStatus = "cancelled"
)

// String implements fmt.Stringer.
func (p PaymentIntentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentIntentStatus.
func (p PaymentIntentStatus) IsValid() bool {
	switch p {
	case PaymentIntentStatusPending,
		PaymentIntentStatusProcessing,
		PaymentIntentStatusSucceeded,
		PaymentIntentStatusFailed,
		PaymentIntentStatusCancelled:
		return true
	default:
		return false
	}
}
