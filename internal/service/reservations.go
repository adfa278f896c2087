package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// ReservationManager holds a set of tickets for a customer over several days.
// It is the N-ticket, long-duration case of the same hold HoldManager grants.
type ReservationManager struct {
	*core
	customers *CustomerResolver
}

// Create reserves every ticket or none.
func (m *ReservationManager) Create(ctx context.Context, in model.CreateReservationInput) (model.ReservationSummary, error) {
	const op = "create reservation"
	if err := in.Validate(); err != nil {
		return model.ReservationSummary{}, err
	}
	days := m.reservationDays
	if in.Days > 0 {
		days = in.Days
	}
	token, err := m.tokens.NewToken()
	if err != nil {
		return model.ReservationSummary{}, err
	}

	var summary model.ReservationSummary
	err = m.store.WithTx(ctx, func(txCtx context.Context) error {
		raffle, err := m.store.GetRaffle(txCtx, in.RaffleID)
		if err != nil {
			return err
		}
		tickets, err := m.lockTickets(txCtx, op, in.TicketIDs)
		if err != nil {
			return err
		}
		now := m.clock.Now()
		for _, t := range tickets {
			if t.RaffleID != raffle.ID {
				return model.Errorf(model.KindNotFound, op, "ticket %s not found in raffle %s", t.ID, raffle.ID)
			}
			if err := claimable(op, t, now); err != nil {
				return err
			}
		}

		customer, err := m.customers.Resolve(txCtx, in.Customer)
		if err != nil {
			return err
		}

		r := model.Reservation{
			ID:         uuid.NewString(),
			RaffleID:   raffle.ID,
			CustomerID: customer.ID,
			Token:      token,
			TicketIDs:  ticketIDs(tickets),
			ExpiresAt:  now.Add(time.Duration(days) * 24 * time.Hour),
			State:      model.ReservationActive,
			Notes:      in.Notes,
			CreatedAt:  now,
		}
		if err := m.store.CreateReservation(txCtx, r); err != nil {
			return err
		}
		for i := range tickets {
			grant(&tickets[i], token, r.ExpiresAt, &customer.ID, &r.ID)
			if err := m.store.UpdateTicket(txCtx, tickets[i]); err != nil {
				return err
			}
		}

		summary = summarize(r, customer, tickets, raffle.UnitPrice)
		return nil
	})
	if err != nil {
		return model.ReservationSummary{}, err
	}

	m.log.Info().Str("reservation", summary.ReservationID).Ints("numbers", summary.Numbers).Time("expires_at", summary.ExpiresAt).Msg("reservation created")
	m.publish(ctx, Event{Type: EventReservationCreated, RaffleID: in.RaffleID, ReservationID: summary.ReservationID, TicketIDs: in.TicketIDs, Amount: summary.Total})
	return summary, nil
}

// Get returns the reservation summary. The token is only disclosed at creation.
func (m *ReservationManager) Get(ctx context.Context, reservationID string) (model.ReservationSummary, error) {
	r, err := m.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.ReservationSummary{}, err
	}
	raffle, err := m.store.GetRaffle(ctx, r.RaffleID)
	if err != nil {
		return model.ReservationSummary{}, err
	}
	customer, err := m.store.GetCustomer(ctx, r.CustomerID)
	if err != nil {
		return model.ReservationSummary{}, err
	}
	tickets := make([]model.Ticket, 0, len(r.TicketIDs))
	for _, id := range r.TicketIDs {
		t, err := m.store.GetTicket(ctx, id)
		if err != nil {
			return model.ReservationSummary{}, err
		}
		tickets = append(tickets, t)
	}
	summary := summarize(r, customer, tickets, raffle.UnitPrice)
	summary.Token = ""
	return summary, nil
}

// Cancel releases the reservation's tickets back to inventory. Tickets that
// already left the reservation (released individually, or re-held by someone
// else after expiry) are left alone.
func (m *ReservationManager) Cancel(ctx context.Context, reservationID, motive string) error {
	const op = "cancel reservation"
	var r model.Reservation
	err := m.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = m.store.LockReservation(txCtx, reservationID)
		if err != nil {
			return err
		}
		if r.State != model.ReservationActive {
			return model.Errorf(model.KindIllegalStateTransition, op, "reservation is %s", r.State)
		}
		tickets, err := m.lockTickets(txCtx, op, r.TicketIDs)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if t.SaleID != nil || t.ReservationID == nil || *t.ReservationID != r.ID {
				continue
			}
			t.Release()
			if err := m.store.UpdateTicket(txCtx, t); err != nil {
				return err
			}
		}
		r.State = model.ReservationCancelled
		r.CancelReason = motive
		return m.store.UpdateReservation(txCtx, r)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("reservation", r.ID).Str("motive", motive).Msg("reservation cancelled")
	m.publish(ctx, Event{Type: EventReservationCancelled, RaffleID: r.RaffleID, ReservationID: r.ID, TicketIDs: r.TicketIDs, Motive: motive})
	return nil
}

func summarize(r model.Reservation, customer model.Customer, tickets []model.Ticket, unitPrice decimal.Decimal) model.ReservationSummary {
	numbers := make([]int, len(tickets))
	for i, t := range tickets {
		numbers[i] = t.Number
	}
	return model.ReservationSummary{
		ReservationID: r.ID,
		Token:         r.Token,
		Customer:      customer,
		Numbers:       numbers,
		Total:         unitPrice.Mul(decimal.NewFromInt(int64(len(tickets)))),
		ExpiresAt:     r.ExpiresAt,
		State:         r.State,
	}
}
