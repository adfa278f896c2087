package service_test

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// fakeStore is an in-memory Store. Transactions are serialized and rolled
// back by restoring a snapshot, which is enough to observe all-or-nothing
// behaviour and lock ordering outcomes without Postgres.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	raffles      map[string]model.Raffle
	tickets      map[string]model.Ticket
	customers    map[string]model.Customer
	sales        map[string]model.Sale
	abonos       map[string]model.Abono
	reservations map[string]model.Reservation

	failCreateAbono error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		raffles:      map[string]model.Raffle{},
		tickets:      map[string]model.Ticket{},
		customers:    map[string]model.Customer{},
		sales:        map[string]model.Sale{},
		abonos:       map[string]model.Abono{},
		reservations: map[string]model.Reservation{},
	}
}

type fakeSnapshot struct {
	raffles      map[string]model.Raffle
	tickets      map[string]model.Ticket
	customers    map[string]model.Customer
	sales        map[string]model.Sale
	abonos       map[string]model.Abono
	reservations map[string]model.Reservation
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snap := fakeSnapshot{
		raffles:      maps.Clone(f.raffles),
		tickets:      maps.Clone(f.tickets),
		customers:    maps.Clone(f.customers),
		sales:        maps.Clone(f.sales),
		abonos:       maps.Clone(f.abonos),
		reservations: maps.Clone(f.reservations),
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.raffles, f.tickets, f.customers = snap.raffles, snap.tickets, snap.customers
		f.sales, f.abonos, f.reservations = snap.sales, snap.abonos, snap.reservations
		f.mu.Unlock()
		return err
	}
	return nil
}

func notFound(what, id string) error {
	return model.Errorf(model.KindNotFound, "", "%s %s not found", what, id)
}

func (f *fakeStore) CreateRaffle(_ context.Context, r model.Raffle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raffles[r.ID] = r
	for n := 1; n <= r.TotalTickets; n++ {
		id := fmt.Sprintf("%s-%05d", r.ID, n)
		f.tickets[id] = model.Ticket{ID: id, RaffleID: r.ID, Number: n, State: model.TicketAvailable, Price: decimal.Zero, UpdatedAt: r.CreatedAt}
	}
	return nil
}

func (f *fakeStore) GetRaffle(_ context.Context, id string) (model.Raffle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.raffles[id]
	if !ok {
		return model.Raffle{}, notFound("raffle", id)
	}
	return r, nil
}

func (f *fakeStore) ListTickets(_ context.Context, raffleID string) ([]model.Ticket, error) {
	return f.ticketsWhere(func(t model.Ticket) bool { return t.RaffleID == raffleID }), nil
}

func (f *fakeStore) ticketsWhere(match func(model.Ticket) bool) []model.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.tickets {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ticketID maps a ticket number in raffle r to its fake id.
func ticketID(r model.Raffle, number int) string {
	return fmt.Sprintf("%s-%05d", r.ID, number)
}

func (f *fakeStore) ticket(id string) model.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickets[id]
}

func (f *fakeStore) GetTicket(_ context.Context, id string) (model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return model.Ticket{}, notFound("ticket", id)
	}
	return t, nil
}

func (f *fakeStore) LockTicket(ctx context.Context, id string) (model.Ticket, error) {
	return f.GetTicket(ctx, id)
}

func (f *fakeStore) LockTickets(_ context.Context, ids []string) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Ticket, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.tickets[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) LockTicketsBySale(ctx context.Context, saleID string) ([]model.Ticket, error) {
	return f.ListTicketsBySale(ctx, saleID)
}

func (f *fakeStore) ListTicketsBySale(_ context.Context, saleID string) ([]model.Ticket, error) {
	return f.ticketsWhere(func(t model.Ticket) bool { return t.SaleID != nil && *t.SaleID == saleID }), nil
}

func (f *fakeStore) UpdateTicket(_ context.Context, t model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[t.ID]; !ok {
		return notFound("ticket", t.ID)
	}
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id string) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return model.Customer{}, notFound("customer", id)
	}
	return c, nil
}

func (f *fakeStore) findCustomer(match func(model.Customer) bool) *model.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if match(c) {
			return &c
		}
	}
	return nil
}

func (f *fakeStore) FindCustomerByPhone(_ context.Context, phone string) (*model.Customer, error) {
	return f.findCustomer(func(c model.Customer) bool { return c.Phone == phone }), nil
}

func (f *fakeStore) FindCustomerByNationalID(_ context.Context, nationalID string) (*model.Customer, error) {
	return f.findCustomer(func(c model.Customer) bool { return c.NationalID == nationalID }), nil
}

func (f *fakeStore) CreateCustomer(_ context.Context, c model.Customer) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.customers {
		if (c.Phone != "" && existing.Phone == c.Phone) || (c.NationalID != "" && existing.NationalID == c.NationalID) {
			return false, nil
		}
	}
	f.customers[c.ID] = c
	return true, nil
}

func (f *fakeStore) CreateSale(_ context.Context, s model.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[s.ID] = s
	return nil
}

func (f *fakeStore) GetSale(_ context.Context, id string) (model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return model.Sale{}, notFound("sale", id)
	}
	return s, nil
}

func (f *fakeStore) LockSale(ctx context.Context, id string) (model.Sale, error) {
	return f.GetSale(ctx, id)
}

func (f *fakeStore) UpdateSale(_ context.Context, s model.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[s.ID] = s
	return nil
}

func (f *fakeStore) CreateAbono(_ context.Context, a model.Abono) error {
	if f.failCreateAbono != nil {
		return f.failCreateAbono
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abonos[a.ID] = a
	return nil
}

func (f *fakeStore) LockAbono(_ context.Context, id string) (model.Abono, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.abonos[id]
	if !ok {
		return model.Abono{}, notFound("abono", id)
	}
	return a, nil
}

func (f *fakeStore) UpdateAbono(_ context.Context, a model.Abono) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abonos[a.ID] = a
	return nil
}

func (f *fakeStore) ListAbonosBySale(_ context.Context, saleID string) ([]model.Abono, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Abono
	for _, a := range f.abonos {
		if a.SaleID == saleID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) SumConfirmedBySale(ctx context.Context, saleID string) (decimal.Decimal, error) {
	abonos, _ := f.ListAbonosBySale(ctx, saleID)
	sum := decimal.Zero
	for _, a := range abonos {
		if a.State == model.AbonoConfirmed {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (f *fakeStore) ConfirmedByTicket(ctx context.Context, saleID string) (map[string]decimal.Decimal, error) {
	abonos, _ := f.ListAbonosBySale(ctx, saleID)
	out := map[string]decimal.Decimal{}
	for _, a := range abonos {
		if a.State == model.AbonoConfirmed && a.TicketID != nil {
			out[*a.TicketID] = out[*a.TicketID].Add(a.Amount)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeStore) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return model.Reservation{}, notFound("reservation", id)
	}
	return r, nil
}

func (f *fakeStore) LockReservation(ctx context.Context, id string) (model.Reservation, error) {
	return f.GetReservation(ctx, id)
}

func (f *fakeStore) UpdateReservation(_ context.Context, r model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[r.ID] = r
	return nil
}
