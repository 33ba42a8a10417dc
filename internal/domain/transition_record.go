package domain

import "time"

// TransitionRecord is an immutable audit trail entry for a ticket or
// work-order status change.
type TransitionRecord struct {
	ID          string
	TicketID    string
	WorkOrderID *string
	ActorUserID string
	ActorRole   Role
	OldStatus   string
	NewStatus   string
	Comment     *string
	CreatedAt   time.Time
}
