package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

func TestHoldManager_Acquire_ExclusiveUntilExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.hold(t, 12)
	if first.ExpiresAt != t0.Add(15*time.Minute) {
		t.Fatalf("expected default 15 minute hold, got expiry %v", first.ExpiresAt)
	}

	_, err := f.engine.Holds.Acquire(ctx, model.HoldTicketInput{TicketID: f.id(12)})
	assertKind(t, err, model.ErrAlreadyHeld)

	f.clock.Advance(16 * time.Minute)
	second := f.hold(t, 12)
	if second.Token == first.Token {
		t.Fatal("expected a fresh token after expiry")
	}
	if got := f.store.ticket(f.id(12)).HoldToken; got != second.Token {
		t.Fatalf("expected ticket to carry the new token, got %q", got)
	}
}

func TestHoldManager_Acquire_ConcurrentCallersOneWins(t *testing.T) {
	f := newFixture(t)
	const callers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		rejected int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Holds.Acquire(context.Background(), model.HoldTicketInput{TicketID: f.id(7)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case model.KindOf(err) == model.KindAlreadyHeld:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || rejected != callers-1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d rejections", won, rejected)
	}
}

func TestHoldManager_Acquire_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := f.engine.Holds.Acquire(ctx, model.HoldTicketInput{TicketID: "missing"})
		assertKind(t, err, model.ErrNotFound)
	})

	t.Run("voided ticket", func(t *testing.T) {
		tk := f.store.ticket(f.id(3))
		tk.State = model.TicketVoided
		if err := f.store.UpdateTicket(ctx, tk); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err := f.engine.Holds.Acquire(ctx, model.HoldTicketInput{TicketID: f.id(3)})
		assertKind(t, err, model.ErrIllegalStateTransition)
	})

	t.Run("custom duration", func(t *testing.T) {
		h, err := f.engine.Holds.Acquire(ctx, model.HoldTicketInput{TicketID: f.id(4), Minutes: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := f.clock.Now().Add(2 * time.Minute); !h.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, h.ExpiresAt)
		}
	})
}

func TestHoldManager_Release(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, 5)

	err := f.engine.Holds.Release(ctx, h.TicketID, "not-the-token")
	assertKind(t, err, model.ErrInvalidToken)

	if err := f.engine.Holds.Release(ctx, h.TicketID, h.Token); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tk := f.store.ticket(h.TicketID)
	if tk.State != model.TicketAvailable || tk.HoldToken != "" || tk.HoldExpiresAt != nil {
		t.Fatalf("expected released ticket, got %+v", tk)
	}

	err = f.engine.Holds.Release(ctx, h.TicketID, h.Token)
	assertKind(t, err, model.ErrInvalidToken)
}

func TestHoldManager_Release_ExpiredHoldWithMatchingToken(t *testing.T) {
	f := newFixture(t)
	h := f.hold(t, 6)
	f.clock.Advance(time.Hour)

	if err := f.engine.Holds.Release(context.Background(), h.TicketID, h.Token); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestHoldManager_Release_RefusesReservationTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reserve(t, 7, 8)

	err := f.engine.Holds.Release(ctx, f.id(7), r.Token)
	assertKind(t, err, model.ErrInvalidToken)

	tk := f.store.ticket(f.id(7))
	if tk.ReservationID == nil || *tk.ReservationID != r.ReservationID || tk.HoldToken != r.Token {
		t.Fatalf("expected ticket 7 to stay in the reservation, got %+v", tk)
	}
	if _, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: r.ReservationID}); err != nil {
		t.Fatalf("expected reservation to stay convertible, got %v", err)
	}
}

func TestHoldManager_Verify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, 9)

	tests := []struct {
		name    string
		ticket  string
		token   string
		advance time.Duration
		want    model.HoldStatus
	}{
		{name: "unknown ticket", ticket: "missing", token: h.Token, want: model.HoldStatus{}},
		{name: "wrong token", ticket: h.TicketID, token: "nope", want: model.HoldStatus{Found: true}},
		{name: "valid", ticket: h.TicketID, token: h.Token, want: model.HoldStatus{Found: true, Valid: true}},
		{name: "expired", ticket: h.TicketID, token: h.Token, advance: 20 * time.Minute, want: model.HoldStatus{Found: true, Expired: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f.clock.Advance(tc.advance)
			got, err := f.engine.Holds.Verify(ctx, tc.ticket, tc.token)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
