package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/events"
	"github.com/amarinov1974/cmms-system-sub002/internal/repository"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

type fakeTxRunner struct{}

func (fakeTxRunner) InTx(_ context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

type fakeGuard struct {
	mu       sync.Mutex
	deny     bool
	acquires int
	releases int
}

func (g *fakeGuard) Acquire(_ context.Context, _, _ string, _ int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquires++
	return !g.deny
}

func (g *fakeGuard) Release(_ context.Context, _, _ string, _ int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases++
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = "t-" + strconv.Itoa(r.seq)
	ticket.Version = 1
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket.Clone(), nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return apperrors.NewVersionConflict("ticket")
	}
	ticket.Version++
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *fakeTicketRepo) UpdateTx(ctx context.Context, _ pgx.Tx, ticket *domain.Ticket) error {
	return r.Update(ctx, ticket)
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		out = append(out, *t.Clone())
	}
	return out, nil
}

type fakeWorkOrderRepo struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*domain.WorkOrder
}

func newFakeWorkOrderRepo() *fakeWorkOrderRepo {
	return &fakeWorkOrderRepo{orders: map[string]*domain.WorkOrder{}}
}

func (r *fakeWorkOrderRepo) Create(_ context.Context, wo *domain.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	wo.ID = "wo-" + strconv.Itoa(r.seq)
	wo.Version = 1
	r.orders[wo.ID] = wo.Clone()
	return nil
}

func (r *fakeWorkOrderRepo) CreateTx(ctx context.Context, _ pgx.Tx, wo *domain.WorkOrder) error {
	return r.Create(ctx, wo)
}

func (r *fakeWorkOrderRepo) GetByID(_ context.Context, id string) (*domain.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wo, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return wo.Clone(), nil
}

func (r *fakeWorkOrderRepo) GetOpenByTicket(_ context.Context, ticketID string) (*domain.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, wo := range r.orders {
		if wo.TicketID == ticketID && wo.ClosedAt == nil {
			return wo.Clone(), nil
		}
	}
	return nil, nil
}

func (r *fakeWorkOrderRepo) Update(_ context.Context, wo *domain.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[wo.ID]
	if !ok || stored.Version != wo.Version {
		return apperrors.NewVersionConflict("work order")
	}
	wo.Version++
	r.orders[wo.ID] = wo.Clone()
	return nil
}

func (r *fakeWorkOrderRepo) UpdateTx(ctx context.Context, _ pgx.Tx, wo *domain.WorkOrder) error {
	return r.Update(ctx, wo)
}

func (r *fakeWorkOrderRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WorkOrder, 0)
	for _, wo := range r.orders {
		if wo.TicketID == ticketID {
			out = append(out, *wo.Clone())
		}
	}
	return out, nil
}

type fakeApprovalRepo struct {
	mu      sync.Mutex
	records []domain.ApprovalRecord
}

func (r *fakeApprovalRepo) Create(_ context.Context, record *domain.ApprovalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeApprovalRepo) CreateTx(ctx context.Context, _ pgx.Tx, record *domain.ApprovalRecord) error {
	return r.Create(ctx, record)
}

func (r *fakeApprovalRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ApprovalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ApprovalRecord, 0)
	for _, rec := range r.records {
		if rec.TicketID == ticketID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) DeleteByTicketTx(_ context.Context, _ pgx.Tx, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.TicketID != ticketID {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TransitionRecord
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TransitionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TransitionRecord, 0)
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users []*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users = append(r.users, user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ResolveUserForRole(_ context.Context, companyID string, role domain.Role, regionID *string) (*domain.User, error) {
	for _, u := range r.users {
		if u.CompanyID != companyID || u.Role != role || !u.Active {
			continue
		}
		if regionID != nil && (u.RegionID == nil || *u.RegionID != *regionID) {
			continue
		}
		return u, nil
	}
	return nil, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) typesSeen() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
