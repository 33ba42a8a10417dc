package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amarinov1974/cmms-system-sub002/internal/approval"
	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/events"
	"github.com/amarinov1974/cmms-system-sub002/internal/lifecycle"
	"github.com/amarinov1974/cmms-system-sub002/internal/repository"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// DecisionGuard is the at-most-once lock around one approval step.
type DecisionGuard interface {
	Acquire(ctx context.Context, ticketID, ownerUserID string, version int64) bool
	Release(ctx context.Context, ticketID, ownerUserID string, version int64)
}

// TicketService coordinates the ticket lifecycle: it loads snapshots, runs
// the pure transition logic, and commits the results.
type TicketService struct {
	tx         repository.TxRunner
	tickets    repository.TicketRepository
	workOrders repository.WorkOrderRepository
	approvals  repository.ApprovalHistoryRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	resolver   *approval.Resolver
	gate       *approval.Gate
	guard      DecisionGuard
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TxRunner      repository.TxRunner
	TicketRepo    repository.TicketRepository
	WorkOrderRepo repository.WorkOrderRepository
	ApprovalRepo  repository.ApprovalHistoryRepository
	HistoryRepo   repository.TicketHistoryRepository
	UserRepo      repository.UserRepository
	Resolver      *approval.Resolver
	Gate          *approval.Gate
	DecisionGuard DecisionGuard
	Dispatcher    events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// DecisionOutcome is what DecideApproval hands back to the API layer: the new
// snapshot plus the side effects the caller must act on.
type DecisionOutcome struct {
	Ticket      *domain.Ticket
	SideEffects []approval.SideEffect
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tx:         deps.TxRunner,
		tickets:    deps.TicketRepo,
		workOrders: deps.WorkOrderRepo,
		approvals:  deps.ApprovalRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		resolver:   deps.Resolver,
		gate:       deps.Gate,
		guard:      deps.DecisionGuard,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a draft for the acting store manager's own store.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleStoreManager {
		return nil, apperrors.NewUnauthorized("only a store manager may raise a ticket", nil)
	}
	if actor.RegionID == nil || actor.StoreID == nil {
		return nil, apperrors.NewValidationError("acting user has no store assignment", nil)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	ticket := &domain.Ticket{
		ExternalKey:     generateKey("MT"),
		CompanyID:       actor.CompanyID,
		RegionID:        *actor.RegionID,
		StoreID:         *actor.StoreID,
		CreatedByUserID: actor.ID,
		Title:           title,
		Description:     description,
		Status:          domain.TicketStatusDraft,
		OwnerUserID:     actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// SubmitTicket moves a draft into triage; the resolved maintenance staff user
// becomes the owner.
func (s *TicketService) SubmitTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	triage, err := s.mustResolve(ctx, ticket.CompanyID, domain.RoleMaintenanceStaff, nil)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.SubmitTicket(ticket, actor.ID, triage)
	if err != nil {
		return nil, err
	}
	if err := s.commitTicket(ctx, actor, ticket, next, "submitted"); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: next.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: next.Status,
			NewOwner:  next.OwnerUserID,
		},
	})
	return next, nil
}

// RequestInfo sends the ticket back to its creator for clarification.
func (s *TicketService) RequestInfo(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.RequestInfo(ticket, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.commitTicket(ctx, actor, ticket, next, "info_requested"); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, actor, ticket, next, "")
	return next, nil
}

// ProceedToEstimation routes the submitted ticket to the estimator.
func (s *TicketService) ProceedToEstimation(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	estimator, err := s.mustResolve(ctx, ticket.CompanyID, domain.RoleMaintenanceStaff, nil)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.ProceedToEstimation(ticket, actor.ID, estimator)
	if err != nil {
		return nil, err
	}
	if err := s.commitTicket(ctx, actor, ticket, next, "estimation_needed"); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, actor, ticket, next, "")
	return next, nil
}

// ResubmitTicket returns an updated ticket to triage.
func (s *TicketService) ResubmitTicket(ctx context.Context, actor *domain.User, ticketID, description string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	triage, err := s.mustResolve(ctx, ticket.CompanyID, domain.RoleMaintenanceStaff, nil)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.ResubmitTicket(ticket, actor.ID, strings.TrimSpace(description), triage)
	if err != nil {
		return nil, err
	}
	if err := s.commitTicket(ctx, actor, ticket, next, "resubmitted"); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, actor, ticket, next, "")
	return next, nil
}

// RecordCostEstimation stores the estimated amount, clears any previous
// approval history in the same transaction, and routes the ticket to the
// first approver of the amount-derived chain.
func (s *TicketService) RecordCostEstimation(ctx context.Context, actor *domain.User, ticketID string, amount domain.Money) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	chain, err := approval.RequiredApprovers(amount)
	if err != nil {
		return nil, err
	}
	scope := approval.Scope{CompanyID: ticket.CompanyID, RegionID: ticket.RegionID}
	first, err := s.resolver.NextApprover(ctx, chain, scope, nil)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.RecordEstimation(ticket, actor.ID, amount, first)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.approvals.DeleteByTicketTx(ctx, tx, ticket.ID); err != nil {
			return err
		}
		return s.tickets.UpdateTx(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, actor, next.ID, nil, string(ticket.Status), string(next.Status), "estimation_recorded")
	s.publishEvent(ctx, events.Event{
		Type:     events.EventEstimationRecorded,
		TicketID: next.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.EstimationRecordedPayload{
			Amount:        amount.String(),
			ChainLength:   len(chain),
			FirstApprover: first.Role,
		},
	})
	return next, nil
}

// DecideApproval runs one approval step through the gate. Each call consumes
// one chain position; the Redis guard rejects duplicate deliveries of the
// same step and the version check backstops races.
func (s *TicketService) DecideApproval(ctx context.Context, actor *domain.User, ticketID string, decision domain.ApprovalDecision, reason string) (*DecisionOutcome, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if s.guard != nil && !s.guard.Acquire(ctx, ticket.ID, ticket.OwnerUserID, ticket.Version) {
		return nil, apperrors.NewConflict("an identical approval decision is already being processed", nil)
	}
	// Any failure after Acquire frees the key so a corrected retry is not
	// stuck behind the TTL.
	release := func() {
		if s.guard != nil {
			s.guard.Release(ctx, ticket.ID, ticket.OwnerUserID, ticket.Version)
		}
	}

	result, err := s.gate.HandleApprovalDecision(ctx, ticket, actor.ID, actor.Role, decision, reason)
	if err != nil {
		release()
		return nil, err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.tickets.UpdateTx(ctx, tx, result.Ticket); err != nil {
			return err
		}
		return s.approvals.CreateTx(ctx, tx, result.Record)
	})
	if err != nil {
		release()
		return nil, err
	}
	s.recordTransition(ctx, actor, ticket.ID, nil, string(ticket.Status), string(result.Ticket.Status),
		strings.ToLower(string(decision)))

	payload := events.ApprovalDecidedPayload{
		Decision:      decision,
		Role:          actor.Role,
		ChainComplete: result.ChainComplete,
		Reason:        reason,
	}
	if result.NextApprover != nil {
		role := result.NextApprover.Role
		payload.NextRole = &role
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventApprovalDecided,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:  payload,
	})

	return &DecisionOutcome{Ticket: result.Ticket, SideEffects: result.SideEffects}, nil
}

// CreateWorkOrder spawns a work order for an approved ticket, or a
// replacement after an unsuccessful repair. The insert and the ticket update
// commit in one transaction so neither an orphaned work order nor a
// work-order-less in-progress ticket can exist.
func (s *TicketService) CreateWorkOrder(ctx context.Context, actor *domain.User, ticketID, vendorCompanyID string) (*domain.WorkOrder, *domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.OwnerUserID != actor.ID {
		return nil, nil, apperrors.NewUnauthorized("ticket is not routed to the acting user",
			map[string]any{"required_owner": ticket.OwnerUserID})
	}

	// A replacement spawn requires the open work order to have failed.
	var replaced *domain.WorkOrder
	if ticket.Status == domain.TicketStatusWorkOrderInProgress {
		open, err := s.workOrders.GetOpenByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, nil, err
		}
		if open == nil || open.Status != domain.WorkOrderStatusRepairUnsuccessful {
			return nil, nil, apperrors.NewIllegalTransition(string(ticket.Status), "create_work_order")
		}
		replaced, err = lifecycle.MarkReplacementNeeded(open)
		if err != nil {
			return nil, nil, err
		}
	}

	vendorAdmin, err := s.users.ResolveUserForRole(ctx, vendorCompanyID, domain.RoleVendorAdmin, nil)
	if err != nil {
		return nil, nil, err
	}
	if vendorAdmin == nil {
		return nil, nil, apperrors.NewNoApproverAvailable(string(domain.RoleVendorAdmin))
	}

	wo := &domain.WorkOrder{
		ExternalKey:       generateKey("WO"),
		TicketID:          ticket.ID,
		VendorCompanyID:   vendorCompanyID,
		VendorAdminUserID: vendorAdmin.ID,
		Status:            domain.WorkOrderStatusCreated,
		OwnerUserID:       vendorAdmin.ID,
	}

	var next *domain.Ticket
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		// Close the failed work order before inserting its replacement so
		// the one-open-per-ticket index holds at every statement.
		if replaced != nil {
			if err := s.workOrders.UpdateTx(ctx, tx, replaced); err != nil {
				return err
			}
		}
		if err := s.workOrders.CreateTx(ctx, tx, wo); err != nil {
			return err
		}
		next, err = lifecycle.AttachWorkOrder(ticket, wo.ID)
		if err != nil {
			return err
		}
		return s.tickets.UpdateTx(ctx, tx, next)
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, actor, ticket.ID, &wo.ID, string(ticket.Status), string(next.Status), "work_order_spawned")
	payload := events.WorkOrderSpawnedPayload{
		WorkOrderID:   wo.ID,
		VendorCompany: vendorCompanyID,
		TicketStatus:  string(next.Status),
	}
	if replaced != nil {
		payload.ReplacedWOID = &replaced.ID
	}
	if next.EstimatedAmount != nil {
		value := next.EstimatedAmount.String()
		payload.EstimatedValue = &value
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventWorkOrderSpawned,
		TicketID:    ticket.ID,
		WorkOrderID: &wo.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:     payload,
	})
	return wo, next, nil
}

// WithdrawTicket is the creator-initiated exit. An open work order must still
// be cancellable; it is closed in the same commit.
func (s *TicketService) WithdrawTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var cancelled *domain.WorkOrder
	cancellable := true
	if ticket.Status == domain.TicketStatusWorkOrderInProgress {
		open, err := s.workOrders.GetOpenByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, err
		}
		cancellable = open == nil || lifecycle.Cancellable(open)
		if cancellable && open != nil {
			cancelled, err = lifecycle.CancelWorkOrder(open)
			if err != nil {
				return nil, err
			}
		}
	}

	next, err := lifecycle.WithdrawTicket(ticket, actor.ID, cancellable)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if cancelled != nil {
			if err := s.workOrders.UpdateTx(ctx, tx, cancelled); err != nil {
				return err
			}
		}
		return s.tickets.UpdateTx(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, actor, ticket.ID, nil, string(ticket.Status), string(next.Status), "withdrawn")
	s.publishStatusChange(ctx, actor, ticket, next, "withdrawn")
	return next, nil
}

// GetTicket returns the ticket with its approval history and work orders.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, []domain.ApprovalRecord, []domain.WorkOrder, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	if ticket.CompanyID != actor.CompanyID && !actor.Role.IsVendor() {
		return nil, nil, nil, apperrors.NewUnauthorized("ticket belongs to another company", nil)
	}
	approvals, err := s.approvals.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	workOrders, err := s.workOrders.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return ticket, approvals, workOrders, nil
}

// ListTickets returns tickets visible to the actor: their own for store
// managers, the company's otherwise.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		CompanyID: &actor.CompanyID,
		Statuses:  statuses,
		Limit:     limit,
		Offset:    offset,
	}
	if actor.Role == domain.RoleStoreManager {
		filter.CreatedByUserID = &actor.ID
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// ListHistory returns the transition audit trail of a ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TransitionRecord, error) {
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *TicketService) mustResolve(ctx context.Context, companyID string, role domain.Role, regionID *string) (*domain.User, error) {
	user, err := s.users.ResolveUserForRole(ctx, companyID, role, regionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNoApproverAvailable(string(role))
	}
	return user, nil
}

func (s *TicketService) commitTicket(ctx context.Context, actor *domain.User, old, next *domain.Ticket, comment string) error {
	if err := s.tickets.Update(ctx, next); err != nil {
		return err
	}
	s.recordTransition(ctx, actor, next.ID, nil, string(old.Status), string(next.Status), comment)
	return nil
}

func (s *TicketService) recordTransition(ctx context.Context, actor *domain.User, ticketID string, workOrderID *string, oldStatus, newStatus, comment string) {
	if s.history == nil {
		return
	}
	entry := &domain.TransitionRecord{
		TicketID:    ticketID,
		WorkOrderID: workOrderID,
		ActorUserID: actor.ID,
		ActorRole:   actor.Role,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	}
	if comment != "" {
		entry.Comment = &comment
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TicketService) publishStatusChange(ctx context.Context, actor *domain.User, old, next *domain.Ticket, comment string) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: next.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old.Status,
			NewStatus: next.Status,
			NewOwner:  next.OwnerUserID,
			Comment:   comment,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	publishWithDefaults(ctx, s.dispatcher, event)
}

func generateKey(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
