package order

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the order lifecycle:
//
//	pending -> paid -> fulfilled
//	pending -> cancelled
//
// Everything else is rejected. Payment events against a non-pending order
// are handled as no-ops by the reconciler, not through this table.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusFulfilled
	default:
		return false
	}
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
