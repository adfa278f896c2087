// Package service implements the ticket hold-and-settlement engine: holds,
// reservations, sale settlement, the abono ledger and cancellation. Every
// mutation runs inside one Store transaction that begins by locking the rows
// it will touch; the row lock is the only concurrency primitive.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/clock"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// TxRunner runs fn inside one atomic transaction. A non-nil error from fn rolls back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RaffleStore interface {
	CreateRaffle(ctx context.Context, raffle model.Raffle) error
	GetRaffle(ctx context.Context, raffleID string) (model.Raffle, error)
	ListTickets(ctx context.Context, raffleID string) ([]model.Ticket, error)
}

// TicketStore reads and writes tickets. Lock* methods take row locks that are
// held until the surrounding transaction ends.
type TicketStore interface {
	GetTicket(ctx context.Context, ticketID string) (model.Ticket, error)
	LockTicket(ctx context.Context, ticketID string) (model.Ticket, error)
	LockTickets(ctx context.Context, ticketIDs []string) ([]model.Ticket, error)
	LockTicketsBySale(ctx context.Context, saleID string) ([]model.Ticket, error)
	ListTicketsBySale(ctx context.Context, saleID string) ([]model.Ticket, error)
	UpdateTicket(ctx context.Context, ticket model.Ticket) error
}

type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (model.Customer, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
	FindCustomerByNationalID(ctx context.Context, nationalID string) (*model.Customer, error)
	// CreateCustomer reports created=false when a concurrent insert won the
	// unique phone/national ID slot.
	CreateCustomer(ctx context.Context, customer model.Customer) (created bool, err error)
}

type SaleStore interface {
	CreateSale(ctx context.Context, sale model.Sale) error
	GetSale(ctx context.Context, saleID string) (model.Sale, error)
	LockSale(ctx context.Context, saleID string) (model.Sale, error)
	UpdateSale(ctx context.Context, sale model.Sale) error
}

type AbonoStore interface {
	CreateAbono(ctx context.Context, abono model.Abono) error
	LockAbono(ctx context.Context, abonoID string) (model.Abono, error)
	UpdateAbono(ctx context.Context, abono model.Abono) error
	ListAbonosBySale(ctx context.Context, saleID string) ([]model.Abono, error)
	SumConfirmedBySale(ctx context.Context, saleID string) (decimal.Decimal, error)
	ConfirmedByTicket(ctx context.Context, saleID string) (map[string]decimal.Decimal, error)
}

type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation model.Reservation) error
	GetReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	LockReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	UpdateReservation(ctx context.Context, reservation model.Reservation) error
}

// Store is the Transactional Store consumed by the engine.
type Store interface {
	TxRunner
	RaffleStore
	TicketStore
	CustomerStore
	SaleStore
	AbonoStore
	ReservationStore
}

const (
	defaultHoldDuration    = 15 * time.Minute
	defaultReservationDays = 3
)

// Deps are the collaborators shared by every component.
type Deps struct {
	Store  Store
	Clock  clock.Clock
	Tokens clock.TokenSource
	Events EventPublisher
	Logger zerolog.Logger
}

type Option func(*core)

// WithHoldDuration overrides the default TTL for single-ticket holds.
func WithHoldDuration(d time.Duration) Option {
	return func(c *core) {
		if d > 0 {
			c.holdDuration = d
		}
	}
}

// WithReservationDays overrides the default reservation length.
func WithReservationDays(days int) Option {
	return func(c *core) {
		if days > 0 {
			c.reservationDays = days
		}
	}
}

type core struct {
	store           Store
	clock           clock.Clock
	tokens          clock.TokenSource
	events          EventPublisher
	log             zerolog.Logger
	holdDuration    time.Duration
	reservationDays int
}

// Engine bundles the components. Each is an explicit object sharing one store
// handle and one clock; nothing here is a package-level singleton.
type Engine struct {
	Holds         *HoldManager
	Reservations  *ReservationManager
	Customers     *CustomerResolver
	Sales         *SettlementEngine
	Payments      *PaymentLedger
	Cancellations *CancellationService
	Raffles       *RaffleService
}

func NewEngine(deps Deps, opts ...Option) *Engine {
	c := &core{
		store:           deps.Store,
		clock:           deps.Clock,
		tokens:          deps.Tokens,
		events:          deps.Events,
		log:             deps.Logger,
		holdDuration:    defaultHoldDuration,
		reservationDays: defaultReservationDays,
	}
	if c.clock == nil {
		c.clock = clock.NewSystem()
	}
	if c.tokens == nil {
		c.tokens = clock.NewRandomTokens()
	}
	if c.events == nil {
		c.events = NopPublisher{}
	}
	for _, opt := range opts {
		opt(c)
	}

	customers := &CustomerResolver{core: c}
	return &Engine{
		Holds:         &HoldManager{core: c},
		Reservations:  &ReservationManager{core: c, customers: customers},
		Customers:     customers,
		Sales:         &SettlementEngine{core: c, customers: customers},
		Payments:      &PaymentLedger{core: c},
		Cancellations: &CancellationService{core: c},
		Raffles:       &RaffleService{core: c},
	}
}

// lockTickets locks ids in a stable order so concurrent multi-ticket
// operations cannot deadlock, and fails with NotFound if any id is unknown.
func (c *core) lockTickets(ctx context.Context, op string, ids []string) ([]model.Ticket, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	tickets, err := c.store.LockTickets(ctx, sorted)
	if err != nil {
		return nil, err
	}
	if len(tickets) != len(sorted) {
		found := make(map[string]struct{}, len(tickets))
		for _, t := range tickets {
			found[t.ID] = struct{}{}
		}
		for _, id := range sorted {
			if _, ok := found[id]; !ok {
				return nil, model.Errorf(model.KindNotFound, op, "ticket %s not found", id)
			}
		}
	}
	return tickets, nil
}

// saleDetail assembles the read model returned by settlement and ledger calls.
func (c *core) saleDetail(ctx context.Context, sale model.Sale) (model.SaleDetail, error) {
	customer, err := c.store.GetCustomer(ctx, sale.CustomerID)
	if err != nil {
		return model.SaleDetail{}, err
	}
	tickets, err := c.store.ListTicketsBySale(ctx, sale.ID)
	if err != nil {
		return model.SaleDetail{}, err
	}
	abonos, err := c.store.ListAbonosBySale(ctx, sale.ID)
	if err != nil {
		return model.SaleDetail{}, err
	}
	return model.SaleDetail{
		Sale:        sale,
		Outstanding: sale.Outstanding(),
		Customer:    customer,
		Tickets:     tickets,
		Abonos:      abonos,
	}, nil
}

func ticketIDs(tickets []model.Ticket) []string {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}
