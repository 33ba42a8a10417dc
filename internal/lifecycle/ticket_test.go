package lifecycle

import (
	"testing"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

func draftTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:              "t-1",
		CompanyID:       "acme",
		RegionID:        "r1",
		StoreID:         "s-9",
		CreatedByUserID: "sm-1",
		Status:          domain.TicketStatusDraft,
		OwnerUserID:     "sm-1",
	}
}

func user(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Role: role}
}

func TestSubmitTicket(t *testing.T) {
	ticket := draftTicket()
	triage := user("am-1", domain.RoleAreaManager)

	next, err := SubmitTicket(ticket, "sm-1", triage)
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != domain.TicketStatusSubmitted {
		t.Fatalf("status = %s", next.Status)
	}
	if next.OwnerUserID != "am-1" {
		t.Fatalf("owner = %s, want triage am-1", next.OwnerUserID)
	}
	if ticket.Status != domain.TicketStatusDraft {
		t.Fatal("input snapshot mutated")
	}

	if _, err := SubmitTicket(ticket, "other", triage); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("non-creator submit: expected UNAUTHORIZED, got %v", err)
	}
	if _, err := SubmitTicket(next, "sm-1", triage); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("double submit: expected ILLEGAL_TRANSITION, got %v", err)
	}
}

func TestTriageBranches(t *testing.T) {
	ticket := draftTicket()
	ticket.Status = domain.TicketStatusSubmitted
	ticket.OwnerUserID = "am-1"

	back, err := RequestInfo(ticket, "am-1")
	if err != nil {
		t.Fatal(err)
	}
	if back.Status != domain.TicketStatusAwaitingCreatorResponse || back.OwnerUserID != "sm-1" {
		t.Fatalf("request info produced %s owned by %s", back.Status, back.OwnerUserID)
	}

	forward, err := ProceedToEstimation(ticket, "am-1", user("ms-1", domain.RoleMaintenanceStaff))
	if err != nil {
		t.Fatal(err)
	}
	if forward.Status != domain.TicketStatusEstimationNeeded || forward.OwnerUserID != "ms-1" {
		t.Fatalf("proceed produced %s owned by %s", forward.Status, forward.OwnerUserID)
	}

	if _, err := RequestInfo(ticket, "sm-1"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("non-owner triage: expected UNAUTHORIZED, got %v", err)
	}
}

func TestResubmitTicket(t *testing.T) {
	ticket := draftTicket()
	ticket.Status = domain.TicketStatusAwaitingCreatorResponse
	ticket.Description = "compressor broken"

	next, err := ResubmitTicket(ticket, "sm-1", "compressor broken, model XJ-5", user("am-1", domain.RoleAreaManager))
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != domain.TicketStatusUpdatedSubmitted {
		t.Fatalf("status = %s", next.Status)
	}
	if next.Description != "compressor broken, model XJ-5" {
		t.Fatalf("description not updated: %q", next.Description)
	}
	if next.OwnerUserID != "am-1" {
		t.Fatalf("owner = %s", next.OwnerUserID)
	}

	// Updated submissions re-enter triage through the same actions.
	if _, err := RequestInfo(next, "am-1"); err != nil {
		t.Fatalf("request info from UPDATED_SUBMITTED: %v", err)
	}
	if _, err := ProceedToEstimation(next, "am-1", user("ms-1", domain.RoleMaintenanceStaff)); err != nil {
		t.Fatalf("proceed from UPDATED_SUBMITTED: %v", err)
	}
}

func TestRecordEstimation(t *testing.T) {
	ticket := draftTicket()
	ticket.Status = domain.TicketStatusEstimationNeeded
	ticket.OwnerUserID = "ms-1"
	approver := &domain.Approver{Role: domain.RoleAreaManager, UserID: "am-1"}

	next, err := RecordEstimation(ticket, "ms-1", 150_000, approver)
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != domain.TicketStatusEstimationApprovalNeeded {
		t.Fatalf("status = %s", next.Status)
	}
	if next.EstimatedAmount == nil || *next.EstimatedAmount != 150_000 {
		t.Fatalf("amount = %v", next.EstimatedAmount)
	}
	if next.OwnerUserID != "am-1" {
		t.Fatalf("owner = %s, want first approver", next.OwnerUserID)
	}

	if _, err := RecordEstimation(ticket, "ms-1", 0, approver); !apperrors.HasCode(err, apperrors.CodeInvalidAmount) {
		t.Fatalf("zero amount: expected INVALID_AMOUNT, got %v", err)
	}
	if _, err := RecordEstimation(ticket, "ms-1", -5, approver); !apperrors.HasCode(err, apperrors.CodeInvalidAmount) {
		t.Fatalf("negative amount: expected INVALID_AMOUNT, got %v", err)
	}
	if _, err := RecordEstimation(ticket, "other", 100, approver); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("non-owner estimation: expected UNAUTHORIZED, got %v", err)
	}
}

func TestAttachAndArchive(t *testing.T) {
	ticket := draftTicket()
	ticket.Status = domain.TicketStatusEstimationApproved
	ticket.OwnerUserID = "ms-1"

	attached, err := AttachWorkOrder(ticket, "wo-1")
	if err != nil {
		t.Fatal(err)
	}
	if attached.Status != domain.TicketStatusWorkOrderInProgress {
		t.Fatalf("status = %s", attached.Status)
	}
	if attached.OpenWorkOrderID == nil || *attached.OpenWorkOrderID != "wo-1" {
		t.Fatalf("open work order = %v", attached.OpenWorkOrderID)
	}

	// Replacement spawn attaches again without leaving WORK_ORDER_IN_PROGRESS.
	replaced, err := AttachWorkOrder(attached, "wo-2")
	if err != nil {
		t.Fatalf("replacement attach: %v", err)
	}
	if replaced.Status != domain.TicketStatusWorkOrderInProgress {
		t.Fatalf("replacement status = %s", replaced.Status)
	}

	archived, err := ArchiveTicket(replaced)
	if err != nil {
		t.Fatal(err)
	}
	if archived.Status != domain.TicketStatusArchived || archived.ClosedAt == nil {
		t.Fatalf("archive produced %s, closed_at %v", archived.Status, archived.ClosedAt)
	}
	if archived.OpenWorkOrderID != nil {
		t.Fatal("archive must clear the open work order")
	}

	if _, err := ArchiveTicket(ticket); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("archive outside WORK_ORDER_IN_PROGRESS: expected ILLEGAL_TRANSITION, got %v", err)
	}
}

func TestRejectTicket(t *testing.T) {
	ticket := draftTicket()
	ticket.Status = domain.TicketStatusEstimationApprovalNeeded

	rejected, err := RejectTicket(ticket, "not worth repairing")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != domain.TicketStatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	if rejected.RejectReason == nil || *rejected.RejectReason != "not worth repairing" {
		t.Fatalf("reason = %v", rejected.RejectReason)
	}

	if _, err := RejectTicket(rejected, "again"); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("reject of terminal ticket: expected ILLEGAL_TRANSITION, got %v", err)
	}
}

func TestWithdrawTicket(t *testing.T) {
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusDraft,
		domain.TicketStatusSubmitted,
		domain.TicketStatusAwaitingCreatorResponse,
		domain.TicketStatusUpdatedSubmitted,
		domain.TicketStatusEstimationNeeded,
		domain.TicketStatusEstimationApprovalNeeded,
		domain.TicketStatusEstimationApproved,
	} {
		ticket := draftTicket()
		ticket.Status = status
		next, err := WithdrawTicket(ticket, "sm-1", false)
		if err != nil {
			t.Fatalf("withdraw from %s: %v", status, err)
		}
		if next.Status != domain.TicketStatusWithdrawn || next.ClosedAt == nil {
			t.Fatalf("withdraw from %s produced %s", status, next.Status)
		}
	}

	inProgress := draftTicket()
	inProgress.Status = domain.TicketStatusWorkOrderInProgress
	if _, err := WithdrawTicket(inProgress, "sm-1", false); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("withdraw with active visit: expected ILLEGAL_TRANSITION, got %v", err)
	}
	if _, err := WithdrawTicket(inProgress, "sm-1", true); err != nil {
		t.Fatalf("withdraw with cancellable work order: %v", err)
	}

	terminal := draftTicket()
	terminal.Status = domain.TicketStatusArchived
	if _, err := WithdrawTicket(terminal, "sm-1", true); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("withdraw of terminal ticket: expected ILLEGAL_TRANSITION, got %v", err)
	}

	foreign := draftTicket()
	if _, err := WithdrawTicket(foreign, "other", true); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("withdraw by non-creator: expected UNAUTHORIZED, got %v", err)
	}
}
