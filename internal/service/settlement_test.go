package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

func TestSettlementEngine_ConvertReservation_PartialPayment(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, 3, 4, 5)

	d, err := f.engine.Sales.ConvertReservation(context.Background(), model.ConvertReservationInput{
		ReservationID: r.ReservationID,
		PaidNow:       dec("100"),
		PaymentMethod: "nequi",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if d.Sale.State != model.SalePartiallyPaid {
		t.Fatalf("expected PARTIALLY_PAID sale, got %s", d.Sale.State)
	}
	assertDecimal(t, "total", d.Sale.Total, "300")
	assertDecimal(t, "amount paid", d.Sale.AmountPaid, "100")
	assertDecimal(t, "outstanding", d.Outstanding, "200")
	if d.Customer.ID != r.Customer.ID {
		t.Fatalf("expected sale for reservation customer, got %s", d.Customer.ID)
	}
	for _, tk := range d.Tickets {
		if tk.State != model.TicketPartiallyPaid {
			t.Fatalf("expected ticket %d PARTIALLY_PAID, got %s", tk.Number, tk.State)
		}
		if tk.HoldToken != "" || tk.HoldExpiresAt != nil || tk.ReservationID != nil {
			t.Fatalf("expected hold cleared on ticket %d", tk.Number)
		}
		assertDecimal(t, "ticket price", tk.Price, "100")
	}
	if len(d.Abonos) != 3 {
		t.Fatalf("expected one abono per ticket, got %d", len(d.Abonos))
	}
	if got := f.store.reservations[r.ReservationID]; got.State != model.ReservationConverted || got.SaleID == nil || *got.SaleID != d.Sale.ID {
		t.Fatalf("expected converted reservation pointing at the sale, got %+v", got)
	}
}

func TestSettlementEngine_ConvertReservation_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(t, 1)
		f.clock.Advance(6 * 24 * time.Hour)
		_, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: r.ReservationID})
		assertKind(t, err, model.ErrTicketNotHeld)
	})

	t.Run("already converted", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(t, 1)
		if _, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: r.ReservationID}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: r.ReservationID})
		assertKind(t, err, model.ErrIllegalStateTransition)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: "nope"})
		assertKind(t, err, model.ErrNotFound)
	})

	t.Run("fraction of a cent", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(t, 1)
		_, err := f.engine.Sales.ConvertReservation(ctx, model.ConvertReservationInput{ReservationID: r.ReservationID, PaidNow: dec("0.005")})
		assertKind(t, err, model.ErrInvalidAmount)
		if len(f.store.sales) != 0 {
			t.Fatal("expected no sale")
		}
	})
}

func TestSettlementEngine_CreateSale_FullPayment(t *testing.T) {
	f := newFixture(t)
	h1, h2 := f.hold(t, 1), f.hold(t, 2)

	d, err := f.engine.Sales.CreateSale(context.Background(), model.CreateSaleInput{
		RaffleID: f.raffle.ID,
		Customer: ana,
		Holds: []model.TicketHold{
			{TicketID: h1.TicketID, Token: h1.Token},
			{TicketID: h2.TicketID, Token: h2.Token},
		},
		PaidNow:       dec("250"),
		PaymentMethod: "efectivo",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Sale.State != model.SalePaid {
		t.Fatalf("expected PAID sale, got %s", d.Sale.State)
	}
	assertDecimal(t, "amount paid", d.Sale.AmountPaid, "200")
	for _, tk := range d.Tickets {
		if tk.State != model.TicketPaid {
			t.Fatalf("expected ticket %d PAID, got %s", tk.Number, tk.State)
		}
	}
}

func TestSettlementEngine_CreateSale_UnpaidKeepsTicketsReserved(t *testing.T) {
	f := newFixture(t)
	h := f.hold(t, 1)

	d, err := f.engine.Sales.CreateSale(context.Background(), model.CreateSaleInput{
		RaffleID: f.raffle.ID,
		Customer: ana,
		Holds:    []model.TicketHold{{TicketID: h.TicketID, Token: h.Token}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Sale.State != model.SalePending || d.Tickets[0].State != model.TicketReserved {
		t.Fatalf("expected pending sale with reserved ticket, got %s/%s", d.Sale.State, d.Tickets[0].State)
	}
	if d.Tickets[0].SaleID == nil {
		t.Fatal("expected ticket to reference the sale")
	}

	_, err = f.engine.Holds.Acquire(context.Background(), model.HoldTicketInput{TicketID: h.TicketID})
	assertKind(t, err, model.ErrAlreadySold)
}

func TestSettlementEngine_CreateSale_DuplicateSubmit(t *testing.T) {
	f := newFixture(t)
	h := f.hold(t, 9)
	in := model.CreateSaleInput{
		RaffleID: f.raffle.ID,
		Customer: ana,
		Holds:    []model.TicketHold{{TicketID: h.TicketID, Token: h.Token}},
		PaidNow:  dec("100"),
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.engine.Sales.CreateSale(context.Background(), in)
		}()
	}
	wg.Wait()

	var ok, notHeld int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrTicketNotHeld):
			notHeld++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || notHeld != 1 {
		t.Fatalf("expected one success and one TicketNotHeld, got %d and %d", ok, notHeld)
	}
	if len(f.store.sales) != 1 {
		t.Fatalf("expected exactly one sale, got %d", len(f.store.sales))
	}
}

func TestSettlementEngine_CreateSale_Revalidates(t *testing.T) {
	ctx := context.Background()

	t.Run("expired hold aborts every ticket", func(t *testing.T) {
		f := newFixture(t)
		h1 := f.hold(t, 1)
		f.clock.Advance(10 * time.Minute)
		h2 := f.hold(t, 2)
		f.clock.Advance(6 * time.Minute)

		_, err := f.engine.Sales.CreateSale(ctx, model.CreateSaleInput{
			RaffleID: f.raffle.ID,
			Customer: ana,
			Holds: []model.TicketHold{
				{TicketID: h1.TicketID, Token: h1.Token},
				{TicketID: h2.TicketID, Token: h2.Token},
			},
		})
		assertKind(t, err, model.ErrTicketNotHeld)
		if tk := f.store.ticket(h2.TicketID); tk.SaleID != nil || tk.HoldToken != h2.Token {
			t.Fatalf("expected ticket 2 untouched, got %+v", tk)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		f := newFixture(t)
		h := f.hold(t, 1)
		_, err := f.engine.Sales.CreateSale(ctx, model.CreateSaleInput{
			RaffleID: f.raffle.ID,
			Customer: ana,
			Holds:    []model.TicketHold{{TicketID: h.TicketID, Token: "forged"}},
		})
		assertKind(t, err, model.ErrTicketNotHeld)
	})

	t.Run("reserved ticket", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(t, 1)
		_, err := f.engine.Sales.CreateSale(ctx, model.CreateSaleInput{
			RaffleID: f.raffle.ID,
			Customer: ana,
			Holds:    []model.TicketHold{{TicketID: f.id(1), Token: r.Token}},
		})
		assertKind(t, err, model.ErrTicketNotHeld)
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		h := f.hold(t, 1)
		f.store.failCreateAbono = errors.New("disk full")
		_, err := f.engine.Sales.CreateSale(ctx, model.CreateSaleInput{
			RaffleID: f.raffle.ID,
			Customer: ana,
			Holds:    []model.TicketHold{{TicketID: h.TicketID, Token: h.Token}},
			PaidNow:  dec("50"),
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if len(f.store.sales) != 0 || len(f.store.customers) != 0 {
			t.Fatal("expected no sale or customer after rollback")
		}
		if tk := f.store.ticket(h.TicketID); tk.HoldToken != h.Token || tk.SaleID != nil {
			t.Fatalf("expected hold intact, got %+v", tk)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.Sales.CreateSale(ctx, model.CreateSaleInput{RaffleID: f.raffle.ID, Customer: ana})
		assertKind(t, err, model.ErrInvalidInput)
	})
}
