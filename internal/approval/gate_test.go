package approval

import (
	"context"
	"testing"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

func pendingTicket(cents domain.Money, ownerID string) *domain.Ticket {
	amount := cents
	return &domain.Ticket{
		ID:              "t-1",
		CompanyID:       "acme",
		RegionID:        "r1",
		StoreID:         "s-9",
		CreatedByUserID: "sm-1",
		Status:          domain.TicketStatusEstimationApprovalNeeded,
		OwnerUserID:     ownerID,
		EstimatedAmount: &amount,
	}
}

func TestSingleApproverChainCompletes(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := pendingTicket(50_000, "am-1")

	result, err := gate.HandleApprovalDecision(context.Background(), ticket, "am-1", domain.RoleAreaManager, domain.DecisionApprove, "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.ChainComplete {
		t.Fatal("single-approver chain should complete on first approval")
	}
	if result.Ticket.Status != domain.TicketStatusEstimationApproved {
		t.Fatalf("status = %s, want COST_ESTIMATION_APPROVED", result.Ticket.Status)
	}
	if result.Ticket.OwnerUserID != "ms-1" {
		t.Fatalf("owner = %s, want maintenance staff ms-1", result.Ticket.OwnerUserID)
	}
	if len(result.SideEffects) != 1 || result.SideEffects[0] != SideEffectCreateWorkOrder {
		t.Fatalf("side effects = %v, want [CREATE_WORK_ORDER]", result.SideEffects)
	}
	if result.Record == nil || result.Record.Decision != domain.DecisionApprove {
		t.Fatalf("history record not produced: %+v", result.Record)
	}
	// The input snapshot must be untouched.
	if ticket.Status != domain.TicketStatusEstimationApprovalNeeded {
		t.Fatal("input ticket was mutated")
	}
}

func TestMidTierChainWalks(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := pendingTicket(200_000, "am-1")

	steps := []struct {
		actorID string
		role    domain.Role
		nextID  string
	}{
		{actorID: "am-1", role: domain.RoleAreaManager, nextID: "sd-1"},
		{actorID: "sd-1", role: domain.RoleSalesDirector, nextID: "md-1"},
	}
	for i, step := range steps {
		result, err := gate.HandleApprovalDecision(context.Background(), ticket, step.actorID, step.role, domain.DecisionApprove, "")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if result.ChainComplete {
			t.Fatalf("step %d: chain completed early", i)
		}
		if result.Ticket.Status != domain.TicketStatusEstimationApprovalNeeded {
			t.Fatalf("step %d: status = %s", i, result.Ticket.Status)
		}
		if result.Ticket.OwnerUserID != step.nextID {
			t.Fatalf("step %d: rerouted to %s, want %s", i, result.Ticket.OwnerUserID, step.nextID)
		}
		if len(result.SideEffects) != 0 {
			t.Fatalf("step %d: unexpected side effects %v", i, result.SideEffects)
		}
		ticket = result.Ticket
	}

	final, err := gate.HandleApprovalDecision(context.Background(), ticket, "md-1", domain.RoleMaintenanceDirector, domain.DecisionApprove, "")
	if err != nil {
		t.Fatal(err)
	}
	if !final.ChainComplete {
		t.Fatal("chain should complete after the maintenance director")
	}
}

func TestRejectionTerminatesTicket(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := pendingTicket(200_000, "sd-1")

	result, err := gate.HandleApprovalDecision(context.Background(), ticket, "sd-1", domain.RoleSalesDirector, domain.DecisionReject, "over budget")
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticket.Status != domain.TicketStatusRejected {
		t.Fatalf("status = %s, want REJECTED", result.Ticket.Status)
	}
	if result.Ticket.RejectReason == nil || *result.Ticket.RejectReason != "over budget" {
		t.Fatalf("reject reason = %v", result.Ticket.RejectReason)
	}
	if result.Ticket.ClosedAt == nil {
		t.Fatal("rejected ticket must carry a close timestamp")
	}
	if len(result.SideEffects) != 0 {
		t.Fatalf("unexpected side effects %v", result.SideEffects)
	}
	if result.Record.Reason == nil || *result.Record.Reason != "over budget" {
		t.Fatalf("record reason = %v", result.Record.Reason)
	}
}

func TestDecisionByNonOwnerRejected(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := pendingTicket(200_000, "am-1")

	_, err := gate.HandleApprovalDecision(context.Background(), ticket, "sd-1", domain.RoleSalesDirector, domain.DecisionApprove, "")
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestDecisionOutsideChainRejected(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := pendingTicket(50_000, "bd-1")

	_, err := gate.HandleApprovalDecision(context.Background(), ticket, "bd-1", domain.RoleBoardOfDirectors, domain.DecisionApprove, "")
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for role outside the chain, got %v", err)
	}
}

func TestDecisionWithoutPendingEstimation(t *testing.T) {
	gate := NewGate(NewResolver(staffedDirectory()))
	ticket := &domain.Ticket{
		ID:          "t-1",
		CompanyID:   "acme",
		RegionID:    "r1",
		Status:      domain.TicketStatusEstimationNeeded,
		OwnerUserID: "am-1",
	}

	_, err := gate.HandleApprovalDecision(context.Background(), ticket, "am-1", domain.RoleAreaManager, domain.DecisionApprove, "")
	if !apperrors.HasCode(err, apperrors.CodeNoEstimationPending) {
		t.Fatalf("expected NO_ESTIMATION_PENDING, got %v", err)
	}
}

func TestChainCompletionNeedsMaintenanceStaff(t *testing.T) {
	dir := staffedDirectory()
	delete(dir.users, "acme/MAINTENANCE_STAFF")
	gate := NewGate(NewResolver(dir))
	ticket := pendingTicket(50_000, "am-1")

	_, err := gate.HandleApprovalDecision(context.Background(), ticket, "am-1", domain.RoleAreaManager, domain.DecisionApprove, "")
	if !apperrors.HasCode(err, apperrors.CodeNoApproverAvailable) {
		t.Fatalf("expected NO_APPROVER_AVAILABLE, got %v", err)
	}
}
