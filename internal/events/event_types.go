package events

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted      EventType = "ticket_submitted"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventEstimationRecorded   EventType = "estimation_recorded"
	EventApprovalDecided      EventType = "approval_decided"
	EventWorkOrderSpawned     EventType = "work_order_spawned"
	EventWorkOrderStatusMoved EventType = "work_order_status_moved"
	EventTicketArchived       EventType = "ticket_archived"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id"`
	WorkOrderID *string     `json:"work_order_id,omitempty"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	NewOwner  string              `json:"new_owner"`
	Comment   string              `json:"comment,omitempty"`
}

// EstimationRecordedPayload payload.
type EstimationRecordedPayload struct {
	Amount        string      `json:"amount"`
	ChainLength   int         `json:"chain_length"`
	FirstApprover domain.Role `json:"first_approver"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	Decision      domain.ApprovalDecision `json:"decision"`
	Role          domain.Role             `json:"role"`
	ChainComplete bool                    `json:"chain_complete"`
	NextRole      *domain.Role            `json:"next_role,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
}

// WorkOrderSpawnedPayload payload.
type WorkOrderSpawnedPayload struct {
	WorkOrderID    string  `json:"work_order_id"`
	VendorCompany  string  `json:"vendor_company"`
	ReplacedWOID   *string `json:"replaced_work_order_id,omitempty"`
	TicketStatus   string  `json:"ticket_status"`
	EstimatedValue *string `json:"estimated_value,omitempty"`
}

// WorkOrderStatusMovedPayload payload.
type WorkOrderStatusMovedPayload struct {
	OldStatus domain.WorkOrderStatus `json:"old_status"`
	NewStatus domain.WorkOrderStatus `json:"new_status"`
	Outcome   *domain.VisitOutcome   `json:"outcome,omitempty"`
}
