package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// A hold is a token plus an expiry stamped on one or more ticket rows. Single
// ticket holds and multi-day reservations are both holds; they differ only in
// duration, cardinality and whether a customer is bound. claimable and
// checkHeld are the two rules every hold path goes through.

// claimable reports why a locked ticket cannot take a new hold at now.
// An expired hold grants no exclusivity.
func claimable(op string, t model.Ticket, now time.Time) error {
	switch {
	case t.State == model.TicketVoided:
		return model.Errorf(model.KindIllegalStateTransition, op, "ticket %d is voided", t.Number)
	case t.IsSold():
		return model.Errorf(model.KindAlreadySold, op, "ticket %d is already sold", t.Number)
	case t.HasActiveHold(now):
		return model.Errorf(model.KindAlreadyHeld, op, "ticket %d is already held", t.Number)
	}
	return nil
}

// checkHeld re-validates, under lock, that t is still held under token at now.
func checkHeld(op string, t model.Ticket, token string, now time.Time) error {
	if t.IsSold() || !tokensEqual(t.HoldToken, token) || !t.HasActiveHold(now) {
		return model.Errorf(model.KindTicketNotHeld, op, "ticket %d is not held by this token", t.Number)
	}
	return nil
}

// grant stamps a hold on a locked, claimable ticket.
func grant(t *model.Ticket, token string, expiresAt time.Time, customerID, reservationID *string) {
	t.State = model.TicketReserved
	t.HoldToken = token
	t.HoldExpiresAt = &expiresAt
	t.CustomerID = customerID
	t.ReservationID = reservationID
	t.SaleID = nil
}

func tokensEqual(stored, supplied string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// HoldManager grants and releases short-lived exclusive holds on single tickets.
type HoldManager struct {
	*core
}

// Acquire grants a hold on one ticket. Concurrent callers serialize on the
// ticket row lock; the loser re-reads the committed hold and gets AlreadyHeld.
func (m *HoldManager) Acquire(ctx context.Context, in model.HoldTicketInput) (model.Hold, error) {
	const op = "hold ticket"
	if err := in.Validate(); err != nil {
		return model.Hold{}, err
	}
	ttl := m.holdDuration
	if in.Minutes > 0 {
		ttl = time.Duration(in.Minutes) * time.Minute
	}
	token, err := m.tokens.NewToken()
	if err != nil {
		return model.Hold{}, err
	}

	var (
		hold   model.Hold
		ticket model.Ticket
	)
	err = m.store.WithTx(ctx, func(txCtx context.Context) error {
		t, err := m.store.LockTicket(txCtx, in.TicketID)
		if err != nil {
			return err
		}
		now := m.clock.Now()
		if err := claimable(op, t, now); err != nil {
			return err
		}

		expiresAt := now.Add(ttl)
		grant(&t, token, expiresAt, nil, nil)
		if err := m.store.UpdateTicket(txCtx, t); err != nil {
			return err
		}
		ticket = t
		hold = model.Hold{TicketID: t.ID, Token: token, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return model.Hold{}, err
	}

	m.log.Info().Str("ticket", ticket.ID).Int("number", ticket.Number).Time("expires_at", hold.ExpiresAt).Msg("ticket held")
	m.publish(ctx, Event{Type: EventTicketHeld, RaffleID: ticket.RaffleID, TicketIDs: []string{ticket.ID}})
	return hold, nil
}

// Release frees a ticket held under token. A matching token succeeds whether
// or not the hold already expired; once released the token is gone, so a
// second call fails with InvalidToken.
func (m *HoldManager) Release(ctx context.Context, ticketID, token string) error {
	const op = "release ticket"
	var ticket model.Ticket
	err := m.store.WithTx(ctx, func(txCtx context.Context) error {
		t, err := m.store.LockTicket(txCtx, ticketID)
		if err != nil {
			return err
		}
		if t.SaleID != nil || !tokensEqual(t.HoldToken, token) {
			return model.Errorf(model.KindInvalidToken, op, "token does not match ticket %d", t.Number)
		}
		// Reservation tickets leave only through the reservation.
		if t.ReservationID != nil {
			return model.Errorf(model.KindInvalidToken, op, "ticket %d belongs to a reservation", t.Number)
		}
		t.Release()
		ticket = t
		return m.store.UpdateTicket(txCtx, t)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("ticket", ticket.ID).Int("number", ticket.Number).Msg("ticket released")
	m.publish(ctx, Event{Type: EventTicketReleased, RaffleID: ticket.RaffleID, TicketIDs: []string{ticket.ID}})
	return nil
}

// Verify is a pure read used by polling clients. Expiry is discovered here,
// never swept.
func (m *HoldManager) Verify(ctx context.Context, ticketID, token string) (model.HoldStatus, error) {
	t, err := m.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.HoldStatus{}, nil
		}
		return model.HoldStatus{}, err
	}

	now := m.clock.Now()
	matches := t.SaleID == nil && tokensEqual(t.HoldToken, token) && t.HoldExpiresAt != nil
	return model.HoldStatus{
		Found:   true,
		Valid:   matches && !now.After(*t.HoldExpiresAt),
		Expired: matches && now.After(*t.HoldExpiresAt),
	}, nil
}
