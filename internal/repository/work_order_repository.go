package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// WorkOrderRepository encapsulates work-order persistence. The CreateTx and
// UpdateTx variants run inside a caller-owned transaction so a spawn commits
// atomically with the parent ticket's status flip.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *domain.WorkOrder) error
	CreateTx(ctx context.Context, tx pgx.Tx, wo *domain.WorkOrder) error
	GetByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	GetOpenByTicket(ctx context.Context, ticketID string) (*domain.WorkOrder, error)
	Update(ctx context.Context, wo *domain.WorkOrder) error
	UpdateTx(ctx context.Context, tx pgx.Tx, wo *domain.WorkOrder) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkOrder, error)
}

type workOrderRepository struct {
	pool *pgxpool.Pool
}

// NewWorkOrderRepository instantiates repository.
func NewWorkOrderRepository(pool *pgxpool.Pool) WorkOrderRepository {
	return &workOrderRepository{pool: pool}
}

const workOrderColumns = `id, external_key, ticket_id, vendor_company_id, vendor_admin_user_id,
               technician_user_id, status, owner_user_id, proposed_amount_cents, last_outcome,
               visit_count, scheduled_at, version, created_at, updated_at, closed_at`

const workOrderInsertQuery = `
        INSERT INTO work_orders (external_key, ticket_id, vendor_company_id, vendor_admin_user_id,
            technician_user_id, status, owner_user_id, proposed_amount_cents, last_outcome,
            visit_count, scheduled_at, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,1)
        RETURNING id, version, created_at, updated_at`

func (r *workOrderRepository) Create(ctx context.Context, wo *domain.WorkOrder) error {
	return r.pool.QueryRow(ctx, workOrderInsertQuery, workOrderInsertArgs(wo)...).
		Scan(&wo.ID, &wo.Version, &wo.CreatedAt, &wo.UpdatedAt)
}

func (r *workOrderRepository) CreateTx(ctx context.Context, tx pgx.Tx, wo *domain.WorkOrder) error {
	return tx.QueryRow(ctx, workOrderInsertQuery, workOrderInsertArgs(wo)...).
		Scan(&wo.ID, &wo.Version, &wo.CreatedAt, &wo.UpdatedAt)
}

func workOrderInsertArgs(wo *domain.WorkOrder) []any {
	return []any{
		wo.ExternalKey,
		wo.TicketID,
		wo.VendorCompanyID,
		wo.VendorAdminUserID,
		wo.TechnicianUserID,
		wo.Status,
		wo.OwnerUserID,
		amountCents(wo.ProposedAmount),
		wo.LastOutcome,
		wo.VisitCount,
		wo.ScheduledAt,
	}
}

func (r *workOrderRepository) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	const query = `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id=$1`
	return scanWorkOrder(r.pool.QueryRow(ctx, query, id))
}

// GetOpenByTicket returns the ticket's open work order. A ticket has at most
// one non-frozen work order at a time.
func (r *workOrderRepository) GetOpenByTicket(ctx context.Context, ticketID string) (*domain.WorkOrder, error) {
	const query = `SELECT ` + workOrderColumns + ` FROM work_orders
        WHERE ticket_id=$1 AND closed_at IS NULL
        ORDER BY created_at DESC LIMIT 1`
	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return wo, nil
}

const workOrderUpdateQuery = `
        UPDATE work_orders SET technician_user_id=$1, status=$2, owner_user_id=$3,
            proposed_amount_cents=$4, last_outcome=$5, visit_count=$6, scheduled_at=$7,
            version=version+1, updated_at=NOW(), closed_at=$8
        WHERE id=$9 AND version=$10`

func (r *workOrderRepository) Update(ctx context.Context, wo *domain.WorkOrder) error {
	cmd, err := r.pool.Exec(ctx, workOrderUpdateQuery, workOrderUpdateArgs(wo)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewVersionConflict("work order")
	}
	wo.Version++
	return nil
}

func (r *workOrderRepository) UpdateTx(ctx context.Context, tx pgx.Tx, wo *domain.WorkOrder) error {
	cmd, err := tx.Exec(ctx, workOrderUpdateQuery, workOrderUpdateArgs(wo)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewVersionConflict("work order")
	}
	wo.Version++
	return nil
}

func workOrderUpdateArgs(wo *domain.WorkOrder) []any {
	return []any{
		wo.TechnicianUserID,
		wo.Status,
		wo.OwnerUserID,
		amountCents(wo.ProposedAmount),
		wo.LastOutcome,
		wo.VisitCount,
		wo.ScheduledAt,
		wo.ClosedAt,
		wo.ID,
		wo.Version,
	}
}

func (r *workOrderRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkOrder, error) {
	const query = `SELECT ` + workOrderColumns + ` FROM work_orders
        WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wo)
	}
	return result, rows.Err()
}

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var wo domain.WorkOrder
	var cents *int64
	if err := row.Scan(
		&wo.ID,
		&wo.ExternalKey,
		&wo.TicketID,
		&wo.VendorCompanyID,
		&wo.VendorAdminUserID,
		&wo.TechnicianUserID,
		&wo.Status,
		&wo.OwnerUserID,
		&cents,
		&wo.LastOutcome,
		&wo.VisitCount,
		&wo.ScheduledAt,
		&wo.Version,
		&wo.CreatedAt,
		&wo.UpdatedAt,
		&wo.ClosedAt,
	); err != nil {
		return nil, err
	}
	if cents != nil {
		amount := domain.MoneyFromCents(*cents)
		wo.ProposedAmount = &amount
	}
	return &wo, nil
}
