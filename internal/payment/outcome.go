package payment

// Outcome classifies a payment signal regardless of which path delivered it.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// OutcomeForEvent maps a webhook event type to a reconciliation outcome.
// Unknown event types are acknowledged but not reconciled.
func OutcomeForEvent(t EventType) (Outcome, bool) {
	switch t {
	case EventPaymentSucceeded:
		return OutcomeSucceeded, true
	case EventPaymentFailed:
		return OutcomeFailed, true
	case EventPaymentCanceled:
		return OutcomeCanceled, true
	default:
		return "", false
	}
}
