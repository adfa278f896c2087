package repository

import (
	"context"
	"fmt"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CreateRaffle inserts the raffle and its tickets numbered 1..TotalTickets.
func (s *Store) CreateRaffle(ctx context.Context, r model.Raffle) error {
	_, err := s.exec(ctx,
		`INSERT INTO raffles (id, name, unit_price, total_tickets, draw_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Name, r.UnitPrice, r.TotalTickets, r.DrawDate, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert raffle: %w", err)
	}

	_, err = s.exec(ctx,
		`INSERT INTO tickets (raffle_id, number, state, price, updated_at)
		 SELECT $1, n, 'AVAILABLE', 0, $2
		 FROM generate_series(1, $3::int) AS n`,
		r.ID, r.CreatedAt, r.TotalTickets,
	)
	if err != nil {
		return fmt.Errorf("insert raffle tickets: %w", err)
	}
	return nil
}

func (s *Store) GetRaffle(ctx context.Context, id string) (model.Raffle, error) {
	if !validID(id) {
		return model.Raffle{}, model.Errorf(model.KindNotFound, "", "raffle %s not found", id)
	}
	var r model.Raffle
	err := s.queryRow(ctx,
		`SELECT id, name, unit_price, total_tickets, draw_date, created_at
		 FROM raffles WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.UnitPrice, &r.TotalTickets, &r.DrawDate, &r.CreatedAt)
	if err != nil {
		if nf := notFound(err, "raffle", id); nf != nil {
			return model.Raffle{}, nf
		}
		return model.Raffle{}, fmt.Errorf("get raffle: %w", err)
	}
	return r, nil
}

// ListTickets returns the raffle's tickets ordered by number.
func (s *Store) ListTickets(ctx context.Context, raffleID string) ([]model.Ticket, error) {
	if !validID(raffleID) {
		return nil, nil
	}
	return s.selectTickets(ctx, "list tickets",
		`SELECT `+ticketColumns+` FROM tickets WHERE raffle_id = $1 ORDER BY number`, raffleID)
}
