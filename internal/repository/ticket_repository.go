package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CompanyID       *string
	StoreID         *string
	CreatedByUserID *string
	OwnerUserID     *string
	Statuses        []domain.TicketStatus
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence. Updates use optimistic
// locking on the version column so two concurrent transitions from the same
// snapshot cannot both commit.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateTx(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, company_id, region_id, store_id, created_by_user_id,
               title, description, status, owner_user_id, estimated_amount_cents,
               open_work_order_id, reject_reason, version, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, company_id, region_id, store_id, created_by_user_id,
            title, description, status, owner_user_id, estimated_amount_cents, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.CompanyID,
		ticket.RegionID,
		ticket.StoreID,
		ticket.CreatedByUserID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.OwnerUserID,
		amountCents(ticket.EstimatedAmount),
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

const ticketUpdateQuery = `
        UPDATE tickets SET title=$1, description=$2, status=$3, owner_user_id=$4,
            estimated_amount_cents=$5, open_work_order_id=$6, reject_reason=$7,
            version=version+1, updated_at=NOW(), closed_at=$8
        WHERE id=$9 AND version=$10`

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	cmd, err := r.pool.Exec(ctx, ticketUpdateQuery, ticketUpdateArgs(ticket)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewVersionConflict("ticket")
	}
	ticket.Version++
	return nil
}

// UpdateTx applies the same optimistic update inside an open transaction,
// used when a work-order spawn must commit atomically with the ticket.
func (r *ticketRepository) UpdateTx(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	cmd, err := tx.Exec(ctx, ticketUpdateQuery, ticketUpdateArgs(ticket)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewVersionConflict("ticket")
	}
	ticket.Version++
	return nil
}

func ticketUpdateArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.OwnerUserID,
		amountCents(ticket.EstimatedAmount),
		ticket.OpenWorkOrderID,
		ticket.RejectReason,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	}
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if filter.StoreID != nil {
		args = append(args, *filter.StoreID)
		clauses = append(clauses, fmt.Sprintf("store_id=$%d", len(args)))
	}
	if filter.CreatedByUserID != nil {
		args = append(args, *filter.CreatedByUserID)
		clauses = append(clauses, fmt.Sprintf("created_by_user_id=$%d", len(args)))
	}
	if filter.OwnerUserID != nil {
		args = append(args, *filter.OwnerUserID)
		clauses = append(clauses, fmt.Sprintf("owner_user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var cents *int64
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.CompanyID,
		&ticket.RegionID,
		&ticket.StoreID,
		&ticket.CreatedByUserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.OwnerUserID,
		&cents,
		&ticket.OpenWorkOrderID,
		&ticket.RejectReason,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if cents != nil {
		amount := domain.MoneyFromCents(*cents)
		ticket.EstimatedAmount = &amount
	}
	return &ticket, nil
}

func amountCents(amount *domain.Money) *int64 {
	if amount == nil {
		return nil
	}
	cents := amount.Cents()
	return &cents
}
