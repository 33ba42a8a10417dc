package domain

import "time"

// WorkOrderStatus enumerates lifecycle states for vendor work orders.
type WorkOrderStatus string

const (
	WorkOrderStatusCreated               WorkOrderStatus = "CREATED"
	WorkOrderStatusAccepted              WorkOrderStatus = "ACCEPTED_TECHNICIAN_ASSIGNED"
	WorkOrderStatusServiceInProgress     WorkOrderStatus = "SERVICE_IN_PROGRESS"
	WorkOrderStatusServiceCompleted      WorkOrderStatus = "SERVICE_COMPLETED"
	WorkOrderStatusFollowUpRequested     WorkOrderStatus = "FOLLOW_UP_REQUESTED"
	WorkOrderStatusNewWorkOrderNeeded    WorkOrderStatus = "NEW_WO_NEEDED"
	WorkOrderStatusRepairUnsuccessful    WorkOrderStatus = "REPAIR_UNSUCCESSFUL"
	WorkOrderStatusCostProposalPrepared  WorkOrderStatus = "COST_PROPOSAL_PREPARED"
	WorkOrderStatusCostRevisionRequested WorkOrderStatus = "COST_REVISION_REQUESTED"
	WorkOrderStatusCostProposalApproved  WorkOrderStatus = "COST_PROPOSAL_APPROVED"
	WorkOrderStatusClosedWithoutCost     WorkOrderStatus = "CLOSED_WITHOUT_COST"
	WorkOrderStatusRejected              WorkOrderStatus = "REJECTED"
)

// IsTerminal reports whether the work order is frozen: terminal records are
// read-only and their outcome has rolled up to the parent ticket.
func (s WorkOrderStatus) IsTerminal() bool {
	switch s {
	case WorkOrderStatusCostProposalApproved, WorkOrderStatusClosedWithoutCost, WorkOrderStatusRejected:
		return true
	}
	return false
}

// VisitOutcome is the result a technician records when completing a visit.
type VisitOutcome string

const (
	VisitOutcomeSuccess         VisitOutcome = "SUCCESS"
	VisitOutcomeFollowUpNeeded  VisitOutcome = "FOLLOW_UP_NEEDED"
	VisitOutcomeUnsuccessful    VisitOutcome = "UNSUCCESSFUL"
	VisitOutcomeSuccessNoCharge VisitOutcome = "SUCCESS_NO_CHARGE"
)

// WorkOrder is the vendor-side execution record for a ticket's repair work.
// At most one work order per ticket is open at a time; a failed repair spawns
// a fresh work order under the same ticket.
type WorkOrder struct {
	ID                string
	ExternalKey       string
	TicketID          string
	VendorCompanyID   string
	VendorAdminUserID string
	TechnicianUserID  *string
	Status            WorkOrderStatus
	OwnerUserID       string
	ProposedAmount    *Money
	LastOutcome       *VisitOutcome
	VisitCount        int
	ScheduledAt       *time.Time
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
}

// Clone returns a copy so lifecycle operations never mutate shared snapshots.
func (w *WorkOrder) Clone() *WorkOrder {
	clone := *w
	if w.TechnicianUserID != nil {
		id := *w.TechnicianUserID
		clone.TechnicianUserID = &id
	}
	if w.ProposedAmount != nil {
		amount := *w.ProposedAmount
		clone.ProposedAmount = &amount
	}
	if w.LastOutcome != nil {
		outcome := *w.LastOutcome
		clone.LastOutcome = &outcome
	}
	if w.ScheduledAt != nil {
		ts := *w.ScheduledAt
		clone.ScheduledAt = &ts
	}
	if w.ClosedAt != nil {
		ts := *w.ClosedAt
		clone.ClosedAt = &ts
	}
	return &clone
}
