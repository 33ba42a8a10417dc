package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// ApprovalHistoryRepository stores the ordered approval records of a ticket.
// DeleteByTicketTx backs the reset-on-reestimation rule: clearing history and
// writing the new estimation commit together.
type ApprovalHistoryRepository interface {
	Create(ctx context.Context, record *domain.ApprovalRecord) error
	CreateTx(ctx context.Context, tx pgx.Tx, record *domain.ApprovalRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ApprovalRecord, error)
	DeleteByTicketTx(ctx context.Context, tx pgx.Tx, ticketID string) error
}

type approvalHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalHistoryRepository builds repository.
func NewApprovalHistoryRepository(pool *pgxpool.Pool) ApprovalHistoryRepository {
	return &approvalHistoryRepository{pool: pool}
}

const approvalInsertQuery = `
        INSERT INTO approval_history (id, ticket_id, role, user_id, decision, reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

func (r *approvalHistoryRepository) Create(ctx context.Context, record *domain.ApprovalRecord) error {
	_, err := r.pool.Exec(ctx, approvalInsertQuery,
		record.ID,
		record.TicketID,
		record.Role,
		record.UserID,
		record.Decision,
		record.Reason,
		record.CreatedAt,
	)
	return err
}

func (r *approvalHistoryRepository) CreateTx(ctx context.Context, tx pgx.Tx, record *domain.ApprovalRecord) error {
	_, err := tx.Exec(ctx, approvalInsertQuery,
		record.ID,
		record.TicketID,
		record.Role,
		record.UserID,
		record.Decision,
		record.Reason,
		record.CreatedAt,
	)
	return err
}

func (r *approvalHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ApprovalRecord, error) {
	const query = `
        SELECT id, ticket_id, role, user_id, decision, reason, created_at
        FROM approval_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ApprovalRecord
	for rows.Next() {
		var record domain.ApprovalRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.Role,
			&record.UserID,
			&record.Decision,
			&record.Reason,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *approvalHistoryRepository) DeleteByTicketTx(ctx context.Context, tx pgx.Tx, ticketID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM approval_history WHERE ticket_id=$1`, ticketID)
	return err
}
