package service

import (
	"context"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/events"
	"github.com/amarinov1974/cmms-system-sub002/internal/lifecycle"
	"github.com/amarinov1974/cmms-system-sub002/internal/repository"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// WorkOrderService coordinates the vendor-side lifecycle and rolls terminal
// outcomes up to the parent ticket.
type WorkOrderService struct {
	workOrders repository.WorkOrderRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// WorkOrderDependencies bundles collaborators for the work-order service.
type WorkOrderDependencies struct {
	WorkOrderRepo repository.WorkOrderRepository
	TicketRepo    repository.TicketRepository
	UserRepo      repository.UserRepository
	HistoryRepo   repository.TicketHistoryRepository
	Dispatcher    events.Dispatcher
}

// NewWorkOrderService constructs the service.
func NewWorkOrderService(deps WorkOrderDependencies) *WorkOrderService {
	return &WorkOrderService{
		workOrders: deps.WorkOrderRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// AcceptWorkOrder records the vendor taking the job and assigning one of its
// technicians.
func (s *WorkOrderService) AcceptWorkOrder(ctx context.Context, actor *domain.User, workOrderID, technicianUserID string) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	technician, err := s.users.GetByID(ctx, technicianUserID)
	if err != nil {
		return nil, err
	}
	if technician.Role != domain.RoleVendorTechnician || technician.CompanyID != wo.VendorCompanyID {
		return nil, apperrors.NewValidationError("assignee must be a technician of the vendor company", nil)
	}
	next, err := lifecycle.AcceptWorkOrder(wo, actor.ID, technician)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}
	return next, nil
}

// RejectWorkOrder is the vendor declining the job; the rejection propagates
// to the parent ticket.
func (s *WorkOrderService) RejectWorkOrder(ctx context.Context, actor *domain.User, workOrderID, reason string) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.DeclineWorkOrder(wo, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, wo.TicketID)
	if err != nil {
		return nil, err
	}
	rejected, err := lifecycle.RejectTicket(ticket, reason)
	if err != nil {
		return nil, err
	}
	rejected.OpenWorkOrderID = nil
	if err := s.tickets.Update(ctx, rejected); err != nil {
		return nil, err
	}
	s.recordTicketTransition(ctx, actor, ticket, rejected, "vendor_declined")
	return next, nil
}

// StartVisit opens a service visit.
func (s *WorkOrderService) StartVisit(ctx context.Context, actor *domain.User, workOrderID string) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.StartVisit(wo, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}
	return next, nil
}

// CompleteVisit ends the visit with the technician's outcome. A chargeless
// success closes the work order and archives the ticket immediately.
func (s *WorkOrderService) CompleteVisit(ctx context.Context, actor *domain.User, workOrderID string, outcome domain.VisitOutcome) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.CompleteVisit(wo, actor.ID, outcome)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, &outcome); err != nil {
		return nil, err
	}
	if next.Status == domain.WorkOrderStatusClosedWithoutCost {
		if err := s.archiveParent(ctx, actor, next, "closed_without_cost"); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// PrepareCostProposal records the vendor's chargeable amount and routes the
// work order to the internal stakeholder for acceptance. Used for the first
// proposal and for every revision; the loop carries no iteration cap.
func (s *WorkOrderService) PrepareCostProposal(ctx context.Context, actor *domain.User, workOrderID string, amount domain.Money) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, wo.TicketID)
	if err != nil {
		return nil, err
	}
	internal, err := s.users.ResolveUserForRole(ctx, ticket.CompanyID, domain.RoleMaintenanceStaff, nil)
	if err != nil {
		return nil, err
	}
	if internal == nil {
		return nil, apperrors.NewNoApproverAvailable(string(domain.RoleMaintenanceStaff))
	}
	next, err := lifecycle.PrepareCostProposal(wo, actor.ID, amount, internal)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}
	return next, nil
}

// ApproveCostProposal is the client accepting the proposed cost. Terminal:
// the parent ticket archives.
func (s *WorkOrderService) ApproveCostProposal(ctx context.Context, actor *domain.User, workOrderID string) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.ApproveCostProposal(wo, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}
	if err := s.archiveParent(ctx, actor, next, "cost_approved"); err != nil {
		return nil, err
	}
	return next, nil
}

// RequestCostRevision is the client disputing the amount; ownership returns
// to the vendor admin for a revised proposal.
func (s *WorkOrderService) RequestCostRevision(ctx context.Context, actor *domain.User, workOrderID, reason string) (*domain.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.RequestCostRevision(wo, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, actor, wo, next, nil); err != nil {
		return nil, err
	}
	s.recordWorkOrderComment(ctx, actor, next, reason)
	return next, nil
}

// GetWorkOrder loads a single work order.
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, workOrderID string) (*domain.WorkOrder, error) {
	return s.workOrders.GetByID(ctx, workOrderID)
}

func (s *WorkOrderService) archiveParent(ctx context.Context, actor *domain.User, wo *domain.WorkOrder, comment string) error {
	ticket, err := s.tickets.GetByID(ctx, wo.TicketID)
	if err != nil {
		return err
	}
	archived, err := lifecycle.ArchiveTicket(ticket)
	if err != nil {
		return err
	}
	if err := s.tickets.Update(ctx, archived); err != nil {
		return err
	}
	s.recordTicketTransition(ctx, actor, ticket, archived, comment)
	s.publish(ctx, events.Event{
		Type:        events.EventTicketArchived,
		TicketID:    ticket.ID,
		WorkOrderID: &wo.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: archived.Status,
			NewOwner:  archived.OwnerUserID,
			Comment:   comment,
		},
	})
	return nil
}

func (s *WorkOrderService) commit(ctx context.Context, actor *domain.User, old, next *domain.WorkOrder, outcome *domain.VisitOutcome) error {
	if err := s.workOrders.Update(ctx, next); err != nil {
		return err
	}
	if s.history != nil {
		entry := &domain.TransitionRecord{
			TicketID:    next.TicketID,
			WorkOrderID: &next.ID,
			ActorUserID: actor.ID,
			ActorRole:   actor.Role,
			OldStatus:   string(old.Status),
			NewStatus:   string(next.Status),
		}
		_ = s.history.Create(ctx, entry)
	}
	s.publish(ctx, events.Event{
		Type:        events.EventWorkOrderStatusMoved,
		TicketID:    next.TicketID,
		WorkOrderID: &next.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.WorkOrderStatusMovedPayload{
			OldStatus: old.Status,
			NewStatus: next.Status,
			Outcome:   outcome,
		},
	})
	return nil
}

func (s *WorkOrderService) recordTicketTransition(ctx context.Context, actor *domain.User, old, next *domain.Ticket, comment string) {
	if s.history == nil {
		return
	}
	entry := &domain.TransitionRecord{
		TicketID:    next.ID,
		ActorUserID: actor.ID,
		ActorRole:   actor.Role,
		OldStatus:   string(old.Status),
		NewStatus:   string(next.Status),
	}
	if comment != "" {
		entry.Comment = &comment
	}
	_ = s.history.Create(ctx, entry)
}

func (s *WorkOrderService) recordWorkOrderComment(ctx context.Context, actor *domain.User, wo *domain.WorkOrder, comment string) {
	if s.history == nil || comment == "" {
		return
	}
	entry := &domain.TransitionRecord{
		TicketID:    wo.TicketID,
		WorkOrderID: &wo.ID,
		ActorUserID: actor.ID,
		ActorRole:   actor.Role,
		OldStatus:   string(domain.WorkOrderStatusCostProposalPrepared),
		NewStatus:   string(wo.Status),
		Comment:     &comment,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *WorkOrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	publishWithDefaults(ctx, s.dispatcher, event)
}
