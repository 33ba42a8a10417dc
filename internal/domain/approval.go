package domain

import "time"

// ApprovalDecision is the verdict an approver records on a cost estimation.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "APPROVE"
	DecisionReject  ApprovalDecision = "REJECT"
)

// ApprovalRecord is one entry in a ticket's approval history. History is
// ordered by creation time and cleared whenever a new estimation is recorded.
type ApprovalRecord struct {
	ID        string
	TicketID  string
	Role      Role
	UserID    string
	Decision  ApprovalDecision
	Reason    *string
	CreatedAt time.Time
}

// Approver identifies the concrete user resolved as the next link of an
// approval chain.
type Approver struct {
	Role           Role
	UserID         string
	UserName       string
	IsLastApprover bool
}
