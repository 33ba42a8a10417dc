package dto

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResubmitTicketRequest payload.
type ResubmitTicketRequest struct {
	Description string `json:"description"`
}

// EstimationRequest payload. Amount is a decimal string to keep monetary
// values out of floating point end to end.
type EstimationRequest struct {
	Amount string `json:"amount"`
}

// ApprovalDecisionRequest payload.
type ApprovalDecisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// CreateWorkOrderRequest payload.
type CreateWorkOrderRequest struct {
	VendorCompanyID string `json:"vendor_company_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string              `json:"id"`
	ExternalKey     string              `json:"external_key"`
	StoreID         string              `json:"store_id"`
	Title           string              `json:"title"`
	Status          domain.TicketStatus `json:"status"`
	OwnerUserID     string              `json:"owner_user_id"`
	EstimatedAmount *string             `json:"estimated_amount,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                   `json:"id"`
	ExternalKey     string                   `json:"external_key"`
	CompanyID       string                   `json:"company_id"`
	RegionID        string                   `json:"region_id"`
	StoreID         string                   `json:"store_id"`
	CreatedBy       string                   `json:"created_by"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Status          domain.TicketStatus      `json:"status"`
	OwnerUserID     string                   `json:"owner_user_id"`
	EstimatedAmount *string                  `json:"estimated_amount,omitempty"`
	OpenWorkOrderID *string                  `json:"open_work_order_id,omitempty"`
	RejectReason    *string                  `json:"reject_reason,omitempty"`
	ApprovalHistory []ApprovalRecordResponse `json:"approval_history"`
	WorkOrders      []WorkOrderResponse      `json:"work_orders"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	ClosedAt        *time.Time               `json:"closed_at,omitempty"`
}

// ApprovalRecordResponse is one approval-history entry.
type ApprovalRecordResponse struct {
	Role      domain.Role             `json:"role"`
	UserID    string                  `json:"user_id"`
	Decision  domain.ApprovalDecision `json:"decision"`
	Reason    *string                 `json:"reason,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// DecisionResponse wraps the new snapshot plus the side effects the caller
// must act on.
type DecisionResponse struct {
	Ticket      TicketSummary `json:"ticket"`
	SideEffects []string      `json:"side_effects,omitempty"`
}
