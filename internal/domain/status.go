package domain

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Released reports whether the order's reserved stock has already been
// returned to inventory. Release happens exactly once, on the first
// transition into CANCELLED or REFUNDED.
func (s Status) Released() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// active statuses may still move forward or be cancelled.
func (s Status) active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped:
		return true
	}
	return false
}

// CanTransitionTo encodes the order state machine: forward progression
// with no re-entry into PENDING, cancellation from any active status,
// and REFUNDED reachable from everywhere. REFUNDED itself is final.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() || next == s {
		return false
	}
	switch {
	case next == StatusPending:
		return false
	case next == StatusRefunded:
		return s != StatusRefunded
	case next == StatusCancelled:
		return s.active()
	default: // CONFIRMED, PROCESSING, SHIPPED, DELIVERED
		return s.active()
	}
}
