package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

const reservationColumns = `id, raffle_id, customer_id, token, ticket_ids, expires_at, state, notes,
	cancel_reason, sale_id, created_at`

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var (
		r     model.Reservation
		state string
	)
	err := row.Scan(&r.ID, &r.RaffleID, &r.CustomerID, &r.Token, &r.TicketIDs, &r.ExpiresAt, &state,
		&r.Notes, &r.CancelReason, &r.SaleID, &r.CreatedAt)
	r.State = model.ReservationState(state)
	return r, err
}

func (s *Store) CreateReservation(ctx context.Context, r model.Reservation) error {
	_, err := s.exec(ctx,
		`INSERT INTO reservations (id, raffle_id, customer_id, token, ticket_ids, expires_at, state, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7, $8, $9)`,
		r.ID, r.RaffleID, r.CustomerID, r.Token, r.TicketIDs, r.ExpiresAt, string(r.State), r.Notes, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	return s.getReservation(ctx, id, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`)
}

// LockReservation reads one reservation and locks its row.
func (s *Store) LockReservation(ctx context.Context, id string) (model.Reservation, error) {
	return s.getReservation(ctx, id, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`)
}

func (s *Store) getReservation(ctx context.Context, id, sql string) (model.Reservation, error) {
	if !validID(id) {
		return model.Reservation{}, model.Errorf(model.KindNotFound, "", "reservation %s not found", id)
	}
	r, err := scanReservation(s.queryRow(ctx, sql, id))
	if err != nil {
		if nf := notFound(err, "reservation", id); nf != nil {
			return model.Reservation{}, nf
		}
		return model.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateReservation(ctx context.Context, r model.Reservation) error {
	_, err := s.exec(ctx,
		`UPDATE reservations SET state = $2, cancel_reason = $3, sale_id = $4 WHERE id = $1`,
		r.ID, string(r.State), r.CancelReason, r.SaleID,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}
