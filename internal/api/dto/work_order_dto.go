package dto

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// AcceptWorkOrderRequest payload.
type AcceptWorkOrderRequest struct {
	TechnicianUserID string `json:"technician_user_id"`
}

// RejectWorkOrderRequest payload.
type RejectWorkOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CompleteVisitRequest payload.
type CompleteVisitRequest struct {
	Outcome string `json:"outcome"`
}

// CostProposalRequest payload.
type CostProposalRequest struct {
	Amount string `json:"amount"`
}

// CostRevisionRequest payload.
type CostRevisionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// WorkOrderResponse response.
type WorkOrderResponse struct {
	ID               string                 `json:"id"`
	ExternalKey      string                 `json:"external_key"`
	TicketID         string                 `json:"ticket_id"`
	VendorCompanyID  string                 `json:"vendor_company_id"`
	TechnicianUserID *string                `json:"technician_user_id,omitempty"`
	Status           domain.WorkOrderStatus `json:"status"`
	OwnerUserID      string                 `json:"owner_user_id"`
	ProposedAmount   *string                `json:"proposed_amount,omitempty"`
	LastOutcome      *domain.VisitOutcome   `json:"last_outcome,omitempty"`
	VisitCount       int                    `json:"visit_count"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ClosedAt         *time.Time             `json:"closed_at,omitempty"`
}
