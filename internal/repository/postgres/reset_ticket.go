package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/atplgurukul/gurukul-auth/internal/model"
)

var _ model.ResetTicketStore = (*ResetTicketRepository)(nil)

type ResetTicketRepository struct {
	db *Connection
}

func NewResetTicketRepository(db *Connection) *ResetTicketRepository {
	return &ResetTicketRepository{
		db: db,
	}
}

func (r *ResetTicketRepository) Create(ctx context.Context, ticket model.ResetTicket) error {
	query := `INSERT INTO password_reset_tickets (ticket, email, expires_at, consumed, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		ticket.Ticket, ticket.Email, ticket.ExpiresAt, ticket.Consumed, ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset ticket: %w", err)
	}

	return nil
}

// Consume claims the ticket with one conditional write so it authorizes
// at most one password change, and only for the email it was minted for.
func (r *ResetTicketRepository) Consume(ctx context.Context, ticket, email string, now time.Time) (bool, error) {
	query := `UPDATE password_reset_tickets SET consumed = TRUE
			  WHERE ticket = $1 AND email = $2 AND consumed = FALSE AND expires_at > $3`

	tag, err := r.db.Exec(ctx, query, ticket, email, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume reset ticket: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
