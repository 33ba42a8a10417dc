package lifecycle

import (
	"time"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// WorkOrderAction names the operations defined on the work-order state machine.
type WorkOrderAction string

const (
	WorkOrderActionAccept              WorkOrderAction = "accept"
	WorkOrderActionDecline             WorkOrderAction = "decline"
	WorkOrderActionStartVisit          WorkOrderAction = "start_visit"
	WorkOrderActionCompleteVisit       WorkOrderAction = "complete_visit"
	WorkOrderActionMarkReplacement     WorkOrderAction = "mark_replacement_needed"
	WorkOrderActionPrepareCostProposal WorkOrderAction = "prepare_cost_proposal"
	WorkOrderActionApproveCostProposal WorkOrderAction = "approve_cost_proposal"
	WorkOrderActionRequestCostRevision WorkOrderAction = "request_cost_revision"
	WorkOrderActionCancel              WorkOrderAction = "cancel"
)

// workOrderActionStates is the exhaustive transition table. NEW_WO_NEEDED has
// no outgoing actions on purpose: once a replacement is needed the old record
// is frozen without counting as a cost outcome for the parent ticket.
var workOrderActionStates = map[WorkOrderAction][]domain.WorkOrderStatus{
	WorkOrderActionAccept:          {domain.WorkOrderStatusCreated},
	WorkOrderActionDecline:         {domain.WorkOrderStatusCreated},
	WorkOrderActionStartVisit:      {domain.WorkOrderStatusAccepted, domain.WorkOrderStatusFollowUpRequested},
	WorkOrderActionCompleteVisit:   {domain.WorkOrderStatusServiceInProgress},
	WorkOrderActionMarkReplacement: {domain.WorkOrderStatusRepairUnsuccessful},
	WorkOrderActionPrepareCostProposal: {
		domain.WorkOrderStatusServiceCompleted,
		domain.WorkOrderStatusCostRevisionRequested,
	},
	WorkOrderActionApproveCostProposal: {domain.WorkOrderStatusCostProposalPrepared},
	WorkOrderActionRequestCostRevision: {domain.WorkOrderStatusCostProposalPrepared},
	WorkOrderActionCancel:              {domain.WorkOrderStatusCreated, domain.WorkOrderStatusAccepted},
}

func ensureWorkOrderAction(wo *domain.WorkOrder, action WorkOrderAction) error {
	for _, status := range workOrderActionStates[action] {
		if wo.Status == status {
			return nil
		}
	}
	return apperrors.NewIllegalTransition(string(wo.Status), string(action))
}

func ensureWorkOrderOwner(wo *domain.WorkOrder, actorUserID string) error {
	if wo.OwnerUserID != actorUserID {
		return apperrors.NewUnauthorized("work order is not routed to the acting user",
			map[string]any{"required_owner": wo.OwnerUserID})
	}
	return nil
}

// Cancellable reports whether the work order may still be cancelled, which is
// only the case before a visit has started. Ticket withdrawal during
// WORK_ORDER_IN_PROGRESS depends on this.
func Cancellable(wo *domain.WorkOrder) bool {
	return wo.Status == domain.WorkOrderStatusCreated || wo.Status == domain.WorkOrderStatusAccepted
}

// AcceptWorkOrder records the vendor accepting the job and assigning a
// technician, who becomes the owner for the service phase.
func AcceptWorkOrder(wo *domain.WorkOrder, actorUserID string, technician *domain.User) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionAccept); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusAccepted
	next.TechnicianUserID = &technician.ID
	next.OwnerUserID = technician.ID
	return next, nil
}

// DeclineWorkOrder is the vendor refusing the job. Terminal; the service
// layer propagates the rejection to the parent ticket.
func DeclineWorkOrder(wo *domain.WorkOrder, actorUserID string) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionDecline); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	now := time.Now()
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusRejected
	next.ClosedAt = &now
	return next, nil
}

// StartVisit opens a service visit, either the first one or a follow-up.
func StartVisit(wo *domain.WorkOrder, actorUserID string) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionStartVisit); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusServiceInProgress
	next.VisitCount++
	return next, nil
}

// CompleteVisit ends the running visit and resolves the recorded outcome:
// a follow-up keeps looping on the same work order, an unsuccessful repair
// moves toward a replacement work order, a chargeless success closes the
// record immediately, and a chargeable success awaits the cost proposal with
// the vendor admin as owner.
func CompleteVisit(wo *domain.WorkOrder, actorUserID string, outcome domain.VisitOutcome) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionCompleteVisit); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	next := wo.Clone()
	next.LastOutcome = &outcome
	switch outcome {
	case domain.VisitOutcomeFollowUpNeeded:
		next.Status = domain.WorkOrderStatusFollowUpRequested
	case domain.VisitOutcomeUnsuccessful:
		next.Status = domain.WorkOrderStatusRepairUnsuccessful
		next.OwnerUserID = wo.VendorAdminUserID
	case domain.VisitOutcomeSuccessNoCharge:
		now := time.Now()
		next.Status = domain.WorkOrderStatusClosedWithoutCost
		next.ClosedAt = &now
	case domain.VisitOutcomeSuccess:
		next.Status = domain.WorkOrderStatusServiceCompleted
		next.OwnerUserID = wo.VendorAdminUserID
	default:
		return nil, apperrors.NewValidationError("unknown visit outcome", map[string]any{"outcome": outcome})
	}
	return next, nil
}

// MarkReplacementNeeded freezes an unsuccessful work order once its
// replacement is being spawned under the same ticket.
func MarkReplacementNeeded(wo *domain.WorkOrder) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionMarkReplacement); err != nil {
		return nil, err
	}
	now := time.Now()
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusNewWorkOrderNeeded
	next.ClosedAt = &now
	return next, nil
}

// PrepareCostProposal records the vendor's chargeable amount and hands the
// work order to the internal stakeholder for acceptance. Also used to submit
// a revised amount after a disputed proposal; the loop has no iteration cap.
func PrepareCostProposal(wo *domain.WorkOrder, actorUserID string, amount domain.Money, internalOwner *domain.User) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionPrepareCostProposal); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperrors.NewInvalidAmount("cost proposal amount must be greater than zero")
	}
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusCostProposalPrepared
	next.ProposedAmount = &amount
	next.OwnerUserID = internalOwner.ID
	return next, nil
}

// ApproveCostProposal is the client accepting the proposed cost. Terminal;
// the service layer archives the parent ticket.
func ApproveCostProposal(wo *domain.WorkOrder, actorUserID string) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionApproveCostProposal); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	now := time.Now()
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusCostProposalApproved
	next.ClosedAt = &now
	return next, nil
}

// RequestCostRevision is the client disputing the amount; ownership returns
// to the vendor admin who must prepare a revised proposal.
func RequestCostRevision(wo *domain.WorkOrder, actorUserID string) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionRequestCostRevision); err != nil {
		return nil, err
	}
	if err := ensureWorkOrderOwner(wo, actorUserID); err != nil {
		return nil, err
	}
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusCostRevisionRequested
	next.OwnerUserID = wo.VendorAdminUserID
	return next, nil
}

// CancelWorkOrder closes a not-yet-started work order, used when the parent
// ticket is withdrawn.
func CancelWorkOrder(wo *domain.WorkOrder) (*domain.WorkOrder, error) {
	if err := ensureWorkOrderAction(wo, WorkOrderActionCancel); err != nil {
		return nil, err
	}
	now := time.Now()
	next := wo.Clone()
	next.Status = domain.WorkOrderStatusClosedWithoutCost
	next.ClosedAt = &now
	return next, nil
}
