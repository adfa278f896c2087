package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/clock"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	engine *service.Engine
	store  *fakeStore
	clock  *clock.Manual
	raffle model.Raffle
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	return newFixtureWithEvents(t, service.NopPublisher{}, opts...)
}

func newFixtureWithEvents(t *testing.T, events service.EventPublisher, opts ...service.Option) *fixture {
	t.Helper()
	store := newFakeStore()
	clk := clock.NewManual(t0)
	engine := service.NewEngine(service.Deps{
		Store:  store,
		Clock:  clk,
		Events: events,
		Logger: zerolog.Nop(),
	}, opts...)

	raffle, err := engine.Raffles.CreateRaffle(context.Background(), model.CreateRaffleInput{
		Name:         "Rifa de prueba",
		UnitPrice:    dec("100"),
		TotalTickets: 20,
	})
	if err != nil {
		t.Fatalf("expected no error creating raffle, got %v", err)
	}
	return &fixture{engine: engine, store: store, clock: clk, raffle: raffle}
}

func (f *fixture) id(number int) string {
	return ticketID(f.raffle, number)
}

func (f *fixture) hold(t *testing.T, number int) model.Hold {
	t.Helper()
	h, err := f.engine.Holds.Acquire(context.Background(), model.HoldTicketInput{TicketID: f.id(number)})
	if err != nil {
		t.Fatalf("expected no error holding ticket %d, got %v", number, err)
	}
	return h
}

func (f *fixture) reserve(t *testing.T, numbers ...int) model.ReservationSummary {
	t.Helper()
	ids := make([]string, len(numbers))
	for i, n := range numbers {
		ids[i] = f.id(n)
	}
	r, err := f.engine.Reservations.Create(context.Background(), model.CreateReservationInput{
		RaffleID:  f.raffle.ID,
		Customer:  ana,
		TicketIDs: ids,
		Days:      5,
	})
	if err != nil {
		t.Fatalf("expected no error creating reservation, got %v", err)
	}
	return r
}

var ana = model.CustomerInput{Name: "Ana", Phone: "300 123 4567", NationalID: "1020304050"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertKind(t *testing.T, err error, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v (kind %s)", want, err, model.KindOf(err))
	}
}

func assertDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s %s, got %s", what, want, got)
	}
}
