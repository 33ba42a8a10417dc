package lifecycle

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// TicketAction names the operations defined on the ticket state machine.
type TicketAction string

const (
	TicketActionSubmit              TicketAction = "submit"
	TicketActionRequestInfo         TicketAction = "request_info"
	TicketActionProceedToEstimation TicketAction = "proceed_to_estimation"
	TicketActionResubmit            TicketAction = "resubmit"
	TicketActionRecordEstimation    TicketAction = "record_estimation"
	TicketActionDecideApproval      TicketAction = "decide_approval"
	TicketActionAttachWorkOrder     TicketAction = "attach_work_order"
	TicketActionCloseFromWorkOrder  TicketAction = "close_from_work_order"
	TicketActionWithdraw            TicketAction = "withdraw"
)

// ticketActionStates is the exhaustive transition table: the states each
// action may be invoked from. Every (state, action) pair outside this table
// is rejected with IllegalTransition.
var ticketActionStates = map[TicketAction][]domain.TicketStatus{
	TicketActionSubmit:              {domain.TicketStatusDraft},
	TicketActionRequestInfo:         {domain.TicketStatusSubmitted, domain.TicketStatusUpdatedSubmitted},
	TicketActionProceedToEstimation: {domain.TicketStatusSubmitted, domain.TicketStatusUpdatedSubmitted},
	TicketActionResubmit:            {domain.TicketStatusAwaitingCreatorResponse},
	TicketActionRecordEstimation:    {domain.TicketStatusEstimationNeeded},
	TicketActionDecideApproval:      {domain.TicketStatusEstimationApprovalNeeded},
	TicketActionAttachWorkOrder:     {domain.TicketStatusEstimationApproved, domain.TicketStatusWorkOrderInProgress},
	TicketActionCloseFromWorkOrder:  {domain.TicketStatusWorkOrderInProgress},
	TicketActionWithdraw: {
		domain.TicketStatusDraft,
		domain.TicketStatusSubmitted,
		domain.TicketStatusAwaitingCreatorResponse,
		domain.TicketStatusUpdatedSubmitted,
		domain.TicketStatusEstimationNeeded,
		domain.TicketStatusEstimationApprovalNeeded,
		domain.TicketStatusEstimationApproved,
		domain.TicketStatusWorkOrderInProgress,
	},
}

func ensureTicketAction(ticket *domain.Ticket, action TicketAction) error {
	for _, status := range ticketActionStates[action] {
		if ticket.Status == status {
			return nil
		}
	}
	return apperrors.NewIllegalTransition(string(ticket.Status), string(action))
}

func ensureTicketOwner(ticket *domain.Ticket, actorUserID string) error {
	if ticket.OwnerUserID != actorUserID {
		return apperrors.NewUnauthorized("ticket is not routed to the acting user",
			map[string]any{"required_owner": ticket.OwnerUserID})
	}
	return nil
}

// SubmitTicket moves a draft into triage. Only the creator may submit; the
// ticket is handed to the resolved triage user.
func SubmitTicket(ticket *domain.Ticket, actorUserID string, triage *domain.User) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionSubmit); err != nil {
		return nil, err
	}
	if ticket.CreatedByUserID != actorUserID {
		return nil, apperrors.NewUnauthorized("only the creator may submit a ticket",
			map[string]any{"required_owner": ticket.CreatedByUserID})
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusSubmitted
	next.OwnerUserID = triage.ID
	return next, nil
}

// RequestInfo sends a submitted ticket back to its creator for clarification.
func RequestInfo(ticket *domain.Ticket, actorUserID string) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionRequestInfo); err != nil {
		return nil, err
	}
	if err := ensureTicketOwner(ticket, actorUserID); err != nil {
		return nil, err
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusAwaitingCreatorResponse
	next.OwnerUserID = ticket.CreatedByUserID
	return next, nil
}

// ProceedToEstimation routes a submitted ticket to the estimator.
func ProceedToEstimation(ticket *domain.Ticket, actorUserID string, estimator *domain.User) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionProceedToEstimation); err != nil {
		return nil, err
	}
	if err := ensureTicketOwner(ticket, actorUserID); err != nil {
		return nil, err
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusEstimationNeeded
	next.OwnerUserID = estimator.ID
	return next, nil
}

// ResubmitTicket returns an updated ticket to triage after the creator added
// the requested information.
func ResubmitTicket(ticket *domain.Ticket, actorUserID, description string, triage *domain.User) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionResubmit); err != nil {
		return nil, err
	}
	if ticket.CreatedByUserID != actorUserID {
		return nil, apperrors.NewUnauthorized("only the creator may resubmit a ticket",
			map[string]any{"required_owner": ticket.CreatedByUserID})
	}
	if err := ensureTicketOwner(ticket, actorUserID); err != nil {
		return nil, err
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusUpdatedSubmitted
	if description != "" {
		next.Description = description
	}
	next.OwnerUserID = triage.ID
	return next, nil
}

// RecordEstimation stores the estimated amount and routes the ticket to the
// first approver of the amount-derived chain. The caller must clear any prior
// approval history in the same commit: a new estimation always resets the
// chain.
func RecordEstimation(ticket *domain.Ticket, actorUserID string, amount domain.Money, firstApprover *domain.Approver) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionRecordEstimation); err != nil {
		return nil, err
	}
	if err := ensureTicketOwner(ticket, actorUserID); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperrors.NewInvalidAmount("estimation amount must be greater than zero")
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusEstimationApprovalNeeded
	next.EstimatedAmount = &amount
	next.OwnerUserID = firstApprover.UserID
	return next, nil
}

// AdvanceApproval reroutes the ticket to the next approver after an
// intermediate approval. Status stays COST_ESTIMATION_APPROVAL_NEEDED.
func AdvanceApproval(ticket *domain.Ticket, next *domain.Approver) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionDecideApproval); err != nil {
		return nil, err
	}
	out := ticket.Clone()
	out.OwnerUserID = next.UserID
	return out, nil
}

// CompleteApproval marks the estimation fully approved once the chain is
// exhausted and hands the ticket to the user who will spawn the work order.
func CompleteApproval(ticket *domain.Ticket, workOrderOwner *domain.User) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionDecideApproval); err != nil {
		return nil, err
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusEstimationApproved
	next.OwnerUserID = workOrderOwner.ID
	return next, nil
}

// RejectTicket terminates the ticket with the rejecting actor's reason.
// Reachable from any approval decision and from a vendor declining the work
// order.
func RejectTicket(ticket *domain.Ticket, reason string) (*domain.Ticket, error) {
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), "reject")
	}
	now := time.Now()
	next := ticket.Clone()
	next.Status = domain.TicketStatusRejected
	next.ClosedAt = &now
	if reason != "" {
		next.RejectReason = &reason
	}
	return next, nil
}

// AttachWorkOrder records the spawned work order and moves the ticket into
// WORK_ORDER_IN_PROGRESS. Also used when a replacement work order is spawned
// after an unsuccessful repair, in which case the status does not change.
func AttachWorkOrder(ticket *domain.Ticket, workOrderID string) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionAttachWorkOrder); err != nil {
		return nil, err
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusWorkOrderInProgress
	next.OpenWorkOrderID = &workOrderID
	return next, nil
}

// ArchiveTicket closes the ticket after its work order reached a terminal
// state with the cost approved or closed without cost.
func ArchiveTicket(ticket *domain.Ticket) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionCloseFromWorkOrder); err != nil {
		return nil, err
	}
	now := time.Now()
	next := ticket.Clone()
	next.Status = domain.TicketStatusArchived
	next.OpenWorkOrderID = nil
	next.ClosedAt = &now
	return next, nil
}

// WithdrawTicket is the creator-initiated exit. Allowed from any non-terminal
// state; once a work order is active the caller must have established that
// the open work order is cancellable and pass the result in.
func WithdrawTicket(ticket *domain.Ticket, actorUserID string, openWorkOrderCancellable bool) (*domain.Ticket, error) {
	if err := ensureTicketAction(ticket, TicketActionWithdraw); err != nil {
		return nil, err
	}
	if ticket.CreatedByUserID != actorUserID {
		return nil, apperrors.NewUnauthorized("only the creator may withdraw a ticket",
			map[string]any{"required_owner": ticket.CreatedByUserID})
	}
	if ticket.Status == domain.TicketStatusWorkOrderInProgress && !openWorkOrderCancellable {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(TicketActionWithdraw))
	}
	now := time.Now()
	next := ticket.Clone()
	next.Status = domain.TicketStatusWithdrawn
	next.OpenWorkOrderID = nil
	next.ClosedAt = &now
	return next, nil
}
