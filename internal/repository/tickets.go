package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

const ticketColumns = `id, raffle_id, number, state, hold_token, hold_expires_at,
	customer_id, sale_id, reservation_id, price, updated_at`

func scanTicket(row pgx.Row) (model.Ticket, error) {
	var (
		t     model.Ticket
		state string
		token *string
	)
	err := row.Scan(&t.ID, &t.RaffleID, &t.Number, &state, &token, &t.HoldExpiresAt,
		&t.CustomerID, &t.SaleID, &t.ReservationID, &t.Price, &t.UpdatedAt)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.State, err = model.ParseTicketState(state); err != nil {
		return model.Ticket{}, err
	}
	t.HoldToken = deref(token)
	return t, nil
}

func (s *Store) selectTickets(ctx context.Context, op, sql string, args ...any) ([]model.Ticket, error) {
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tickets, nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (model.Ticket, error) {
	return s.getTicket(ctx, id, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`)
}

// LockTicket reads one ticket and locks its row.
func (s *Store) LockTicket(ctx context.Context, id string) (model.Ticket, error) {
	return s.getTicket(ctx, id, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`)
}

func (s *Store) getTicket(ctx context.Context, id, sql string) (model.Ticket, error) {
	if !validID(id) {
		return model.Ticket{}, model.Errorf(model.KindNotFound, "", "ticket %s not found", id)
	}
	t, err := scanTicket(s.queryRow(ctx, sql, id))
	if err != nil {
		if nf := notFound(err, "ticket", id); nf != nil {
			return model.Ticket{}, nf
		}
		return model.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// LockTickets locks every existing ticket in ids, in id order. Unknown or
// malformed ids are simply absent from the result.
func (s *Store) LockTickets(ctx context.Context, ids []string) ([]model.Ticket, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	return s.selectTickets(ctx, "lock tickets",
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, valid)
}

// LockTicketsBySale locks the sale's tickets in id order, the same order
// LockTickets uses.
func (s *Store) LockTicketsBySale(ctx context.Context, saleID string) ([]model.Ticket, error) {
	if !validID(saleID) {
		return nil, nil
	}
	return s.selectTickets(ctx, "lock sale tickets",
		`SELECT `+ticketColumns+` FROM tickets WHERE sale_id = $1 ORDER BY id FOR UPDATE`, saleID)
}

func (s *Store) ListTicketsBySale(ctx context.Context, saleID string) ([]model.Ticket, error) {
	if !validID(saleID) {
		return nil, nil
	}
	return s.selectTickets(ctx, "list sale tickets",
		`SELECT `+ticketColumns+` FROM tickets WHERE sale_id = $1 ORDER BY number`, saleID)
}

func (s *Store) UpdateTicket(ctx context.Context, t model.Ticket) error {
	tag, err := s.exec(ctx,
		`UPDATE tickets
		 SET state = $2, hold_token = $3, hold_expires_at = $4, customer_id = $5,
		     sale_id = $6, reservation_id = $7, price = $8, updated_at = NOW()
		 WHERE id = $1`,
		t.ID, string(t.State), nullString(t.HoldToken), t.HoldExpiresAt, t.CustomerID,
		t.SaleID, t.ReservationID, t.Price,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Errorf(model.KindNotFound, "", "ticket %s not found", t.ID)
	}
	return nil
}
