package service

import (
	"context"
	"testing"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

type workOrderFixture struct {
	service    *WorkOrderService
	tickets    *fakeTicketRepo
	workOrders *fakeWorkOrderRepo
	history    *fakeHistoryRepo
	dispatcher *capturingDispatcher

	vendorAdmin *domain.User
	technician  *domain.User
	staff       *domain.User
}

func newWorkOrderFixture(t *testing.T) (*workOrderFixture, *domain.Ticket, *domain.WorkOrder) {
	t.Helper()
	users := &fakeUserRepo{users: []*domain.User{
		{ID: "ms-1", Name: "Maintenance Staff", Role: domain.RoleMaintenanceStaff, CompanyID: "acme", Active: true},
		{ID: "va-1", Name: "Vendor Admin", Role: domain.RoleVendorAdmin, CompanyID: "fixit", Active: true},
		{ID: "vt-1", Name: "Technician", Role: domain.RoleVendorTechnician, CompanyID: "fixit", Active: true},
	}}
	tickets := newFakeTicketRepo()
	workOrders := newFakeWorkOrderRepo()
	history := &fakeHistoryRepo{}
	dispatcher := &capturingDispatcher{}

	svc := NewWorkOrderService(WorkOrderDependencies{
		WorkOrderRepo: workOrders,
		TicketRepo:    tickets,
		UserRepo:      users,
		HistoryRepo:   history,
		Dispatcher:    dispatcher,
	})

	amount := domain.Money(150_000)
	ticket := &domain.Ticket{
		CompanyID:       "acme",
		RegionID:        "r1",
		StoreID:         "s-9",
		CreatedByUserID: "sm-1",
		Status:          domain.TicketStatusWorkOrderInProgress,
		OwnerUserID:     "ms-1",
		EstimatedAmount: &amount,
	}
	if err := tickets.Create(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}
	wo := &domain.WorkOrder{
		TicketID:          ticket.ID,
		VendorCompanyID:   "fixit",
		VendorAdminUserID: "va-1",
		Status:            domain.WorkOrderStatusCreated,
		OwnerUserID:       "va-1",
	}
	if err := workOrders.Create(context.Background(), wo); err != nil {
		t.Fatal(err)
	}
	ticket.OpenWorkOrderID = &wo.ID
	if err := tickets.Update(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}

	return &workOrderFixture{
		service:     svc,
		tickets:     tickets,
		workOrders:  workOrders,
		history:     history,
		dispatcher:  dispatcher,
		vendorAdmin: users.users[1],
		technician:  users.users[2],
		staff:       users.users[0],
	}, ticket, wo
}

func TestWorkOrderHappyPath(t *testing.T) {
	f, ticket, wo := newWorkOrderFixture(t)
	ctx := context.Background()

	accepted, err := f.service.AcceptWorkOrder(ctx, f.vendorAdmin, wo.ID, "vt-1")
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != domain.WorkOrderStatusAccepted || accepted.OwnerUserID != "vt-1" {
		t.Fatalf("accepted: %s owned by %s", accepted.Status, accepted.OwnerUserID)
	}

	if _, err := f.service.StartVisit(ctx, f.technician, wo.ID); err != nil {
		t.Fatal(err)
	}
	completed, err := f.service.CompleteVisit(ctx, f.technician, wo.ID, domain.VisitOutcomeSuccess)
	if err != nil {
		t.Fatal(err)
	}
	if completed.Status != domain.WorkOrderStatusServiceCompleted {
		t.Fatalf("completed: %s", completed.Status)
	}

	proposed, err := f.service.PrepareCostProposal(ctx, f.vendorAdmin, wo.ID, 140_000)
	if err != nil {
		t.Fatal(err)
	}
	if proposed.OwnerUserID != "ms-1" {
		t.Fatalf("proposal owner = %s, want internal staff", proposed.OwnerUserID)
	}

	disputed, err := f.service.RequestCostRevision(ctx, f.staff, wo.ID, "labor overpriced")
	if err != nil {
		t.Fatal(err)
	}
	if disputed.Status != domain.WorkOrderStatusCostRevisionRequested || disputed.OwnerUserID != "va-1" {
		t.Fatalf("disputed: %s owned by %s", disputed.Status, disputed.OwnerUserID)
	}

	if _, err := f.service.PrepareCostProposal(ctx, f.vendorAdmin, wo.ID, 120_000); err != nil {
		t.Fatalf("revised proposal: %v", err)
	}

	approved, err := f.service.ApproveCostProposal(ctx, f.staff, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != domain.WorkOrderStatusCostProposalApproved || approved.ClosedAt == nil {
		t.Fatalf("approved: %s, closed_at %v", approved.Status, approved.ClosedAt)
	}

	parent, err := f.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if parent.Status != domain.TicketStatusArchived {
		t.Fatalf("parent ticket = %s, want ARCHIVED", parent.Status)
	}
}

func TestAcceptRejectsForeignTechnician(t *testing.T) {
	f, _, wo := newWorkOrderFixture(t)

	outsider := &domain.User{ID: "vt-9", Role: domain.RoleVendorTechnician, CompanyID: "othervendor", Active: true}
	f.service.users.(*fakeUserRepo).users = append(f.service.users.(*fakeUserRepo).users, outsider)

	_, err := f.service.AcceptWorkOrder(context.Background(), f.vendorAdmin, wo.ID, "vt-9")
	if err == nil {
		t.Fatal("technician of another vendor must be rejected")
	}
}

func TestRejectWorkOrderPropagatesToTicket(t *testing.T) {
	f, ticket, wo := newWorkOrderFixture(t)

	rejected, err := f.service.RejectWorkOrder(context.Background(), f.vendorAdmin, wo.ID, "out of service area")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != domain.WorkOrderStatusRejected {
		t.Fatalf("work order = %s", rejected.Status)
	}

	parent, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if parent.Status != domain.TicketStatusRejected {
		t.Fatalf("parent ticket = %s, want REJECTED", parent.Status)
	}
	if parent.RejectReason == nil || *parent.RejectReason != "out of service area" {
		t.Fatalf("reason = %v", parent.RejectReason)
	}
	if parent.OpenWorkOrderID != nil {
		t.Fatal("rejected ticket must not reference an open work order")
	}
}

func TestChargelessSuccessArchivesTicket(t *testing.T) {
	f, ticket, wo := newWorkOrderFixture(t)
	ctx := context.Background()

	if _, err := f.service.AcceptWorkOrder(ctx, f.vendorAdmin, wo.ID, "vt-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.StartVisit(ctx, f.technician, wo.ID); err != nil {
		t.Fatal(err)
	}
	closed, err := f.service.CompleteVisit(ctx, f.technician, wo.ID, domain.VisitOutcomeSuccessNoCharge)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != domain.WorkOrderStatusClosedWithoutCost {
		t.Fatalf("work order = %s", closed.Status)
	}

	parent, _ := f.tickets.GetByID(ctx, ticket.ID)
	if parent.Status != domain.TicketStatusArchived {
		t.Fatalf("parent ticket = %s, want ARCHIVED", parent.Status)
	}
}

func TestUnsuccessfulRepairReturnsToVendorAdmin(t *testing.T) {
	f, ticket, wo := newWorkOrderFixture(t)
	ctx := context.Background()

	if _, err := f.service.AcceptWorkOrder(ctx, f.vendorAdmin, wo.ID, "vt-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.StartVisit(ctx, f.technician, wo.ID); err != nil {
		t.Fatal(err)
	}
	failed, err := f.service.CompleteVisit(ctx, f.technician, wo.ID, domain.VisitOutcomeUnsuccessful)
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != domain.WorkOrderStatusRepairUnsuccessful || failed.OwnerUserID != "va-1" {
		t.Fatalf("failed: %s owned by %s", failed.Status, failed.OwnerUserID)
	}

	// The parent stays in progress awaiting a replacement work order.
	parent, _ := f.tickets.GetByID(ctx, ticket.ID)
	if parent.Status != domain.TicketStatusWorkOrderInProgress {
		t.Fatalf("parent ticket = %s, want WORK_ORDER_IN_PROGRESS", parent.Status)
	}
}

func TestStartVisitRequiresOwnership(t *testing.T) {
	f, _, wo := newWorkOrderFixture(t)
	ctx := context.Background()

	if _, err := f.service.StartVisit(ctx, f.technician, wo.ID); !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("start before acceptance: expected ILLEGAL_TRANSITION, got %v", err)
	}

	if _, err := f.service.AcceptWorkOrder(ctx, f.vendorAdmin, wo.ID, "vt-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.StartVisit(ctx, f.vendorAdmin, wo.ID); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("start by non-owner: expected UNAUTHORIZED, got %v", err)
	}
}
