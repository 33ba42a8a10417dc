package domain

import "time"

// TicketStatus enumerates lifecycle states for maintenance tickets.
type TicketStatus string

const (
	TicketStatusDraft                    TicketStatus = "DRAFT"
	TicketStatusSubmitted                TicketStatus = "SUBMITTED"
	TicketStatusAwaitingCreatorResponse  TicketStatus = "AWAITING_CREATOR_RESPONSE"
	TicketStatusUpdatedSubmitted         TicketStatus = "UPDATED_SUBMITTED"
	TicketStatusEstimationNeeded         TicketStatus = "COST_ESTIMATION_NEEDED"
	TicketStatusEstimationApprovalNeeded TicketStatus = "COST_ESTIMATION_APPROVAL_NEEDED"
	TicketStatusEstimationApproved       TicketStatus = "COST_ESTIMATION_APPROVED"
	TicketStatusWorkOrderInProgress      TicketStatus = "WORK_ORDER_IN_PROGRESS"
	TicketStatusRejected                 TicketStatus = "REJECTED"
	TicketStatusWithdrawn                TicketStatus = "WITHDRAWN"
	TicketStatusArchived                 TicketStatus = "ARCHIVED"
)

// IsTerminal reports whether no further transitions are defined for the status.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusRejected, TicketStatusWithdrawn, TicketStatusArchived:
		return true
	}
	return false
}

// Ticket is the aggregate for a maintenance request raised by a store.
// OwnerUserID is the single user responsible for the next action and is
// reassigned on every transition. Version backs optimistic locking at the
// persistence layer.
type Ticket struct {
	ID              string
	ExternalKey     string
	CompanyID       string
	RegionID        string
	StoreID         string
	CreatedByUserID string
	Title           string
	Description     string
	Status          TicketStatus
	OwnerUserID     string
	EstimatedAmount *Money
	OpenWorkOrderID *string
	RejectReason    *string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// HasEstimation reports whether a cost estimation is currently recorded.
func (t *Ticket) HasEstimation() bool {
	return t.EstimatedAmount != nil
}

// Clone returns a copy of the ticket so lifecycle operations can work
// snapshot-in/snapshot-out without mutating caller state.
func (t *Ticket) Clone() *Ticket {
	clone := *t
	if t.EstimatedAmount != nil {
		amount := *t.EstimatedAmount
		clone.EstimatedAmount = &amount
	}
	if t.OpenWorkOrderID != nil {
		id := *t.OpenWorkOrderID
		clone.OpenWorkOrderID = &id
	}
	if t.RejectReason != nil {
		reason := *t.RejectReason
		clone.RejectReason = &reason
	}
	if t.ClosedAt != nil {
		ts := *t.ClosedAt
		clone.ClosedAt = &ts
	}
	return &clone
}
