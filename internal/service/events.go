package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks . EventPublisher

type EventType string

const (
	EventTicketHeld           EventType = "ticket.held"
	EventTicketReleased       EventType = "ticket.released"
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventSaleCreated          EventType = "sale.created"
	EventSaleCancelled        EventType = "sale.cancelled"
	EventPaymentRegistered    EventType = "payment.registered"
	EventPaymentSubmitted     EventType = "payment.submitted"
	EventPaymentConfirmed     EventType = "payment.confirmed"
	EventPaymentVoided        EventType = "payment.voided"
)

// Event describes a committed state change. It is published after commit, so
// consumers never observe changes that were rolled back.
type Event struct {
	Type          EventType       `json:"type"`
	RaffleID      string          `json:"raffle_id"`
	TicketIDs     []string        `json:"ticket_ids,omitempty"`
	SaleID        string          `json:"sale_id,omitempty"`
	ReservationID string          `json:"reservation_id,omitempty"`
	AbonoID       string          `json:"abono_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Motive        string          `json:"motive,omitempty"`
	At            time.Time       `json:"at"`
}

// EventPublisher fans committed changes out to notification channels.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// publish never fails the caller: the transaction already committed.
func (c *core) publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = c.clock.Now()
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		c.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("publish event failed")
	}
}
