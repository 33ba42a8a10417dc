package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/lifecycle"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// SideEffect instructs the calling layer to perform an external action after
// committing the new snapshot.
type SideEffect string

// SideEffectCreateWorkOrder is emitted exactly once, when the approval chain
// completes.
const SideEffectCreateWorkOrder SideEffect = "CREATE_WORK_ORDER"

// DecisionResult is the outcome of one approval step: the new ticket
// snapshot, the history record to append, and any side effects to execute.
type DecisionResult struct {
	Ticket        *domain.Ticket
	Record        *domain.ApprovalRecord
	NextApprover  *domain.Approver
	ChainComplete bool
	SideEffects   []SideEffect
}

// Gate validates and applies approval decisions against a ticket's pending
// cost estimation. Each call consumes one approval step, so callers must
// guarantee at-most-once delivery per decision.
type Gate struct {
	resolver *Resolver
}

// NewGate constructs the gate over a chain resolver.
func NewGate(resolver *Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// HandleApprovalDecision runs one step of the approval chain. On approve it
// appends to history and either reroutes the ticket to the next approver or,
// when the chain is exhausted, marks the estimation approved and emits the
// work-order creation side effect. On reject the ticket terminates.
func (g *Gate) HandleApprovalDecision(ctx context.Context, ticket *domain.Ticket, actingUserID string, actingRole domain.Role, decision domain.ApprovalDecision, reason string) (*DecisionResult, error) {
	if ticket.Status != domain.TicketStatusEstimationApprovalNeeded || !ticket.HasEstimation() {
		return nil, apperrors.NewNoEstimationPending()
	}
	if !IsValidApprover(ticket, actingUserID, actingRole) {
		return nil, apperrors.NewUnauthorized("acting user may not decide on this estimation",
			map[string]any{"required_owner": ticket.OwnerUserID})
	}

	record := &domain.ApprovalRecord{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		Role:      actingRole,
		UserID:    actingUserID,
		Decision:  decision,
		CreatedAt: time.Now(),
	}
	if reason != "" {
		record.Reason = &reason
	}

	if decision == domain.DecisionReject {
		rejected, err := lifecycle.RejectTicket(ticket, reason)
		if err != nil {
			return nil, err
		}
		return &DecisionResult{Ticket: rejected, Record: record}, nil
	}

	chain, err := RequiredApprovers(*ticket.EstimatedAmount)
	if err != nil {
		return nil, err
	}
	scope := Scope{CompanyID: ticket.CompanyID, RegionID: ticket.RegionID}
	next, err := g.resolver.NextApprover(ctx, chain, scope, &actingRole)
	if err != nil {
		return nil, err
	}

	if next == nil {
		// Chain complete: hand the ticket to maintenance staff for the
		// work-order spawn.
		owner, err := g.resolver.directory.ResolveUserForRole(ctx, ticket.CompanyID, domain.RoleMaintenanceStaff, nil)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, apperrors.NewNoApproverAvailable(string(domain.RoleMaintenanceStaff))
		}
		approved, err := lifecycle.CompleteApproval(ticket, owner)
		if err != nil {
			return nil, err
		}
		return &DecisionResult{
			Ticket:        approved,
			Record:        record,
			ChainComplete: true,
			SideEffects:   []SideEffect{SideEffectCreateWorkOrder},
		}, nil
	}

	advanced, err := lifecycle.AdvanceApproval(ticket, next)
	if err != nil {
		return nil, err
	}
	return &DecisionResult{Ticket: advanced, Record: record, NextApprover: next}, nil
}
