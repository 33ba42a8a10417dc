package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// TicketHistoryRepository stores the audit trail of status transitions for
// tickets and work orders.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TransitionRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TransitionRecord, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TransitionRecord) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, work_order_id, actor_user_id, actor_role, old_status, new_status, comment)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.WorkOrderID,
		entry.ActorUserID,
		entry.ActorRole,
		entry.OldStatus,
		entry.NewStatus,
		entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TransitionRecord, error) {
	const query = `
        SELECT id, ticket_id, work_order_id, actor_user_id, actor_role, old_status, new_status, comment, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TransitionRecord
	for rows.Next() {
		var entry domain.TransitionRecord
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.WorkOrderID,
			&entry.ActorUserID,
			&entry.ActorRole,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Comment,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
