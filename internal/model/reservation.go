package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationState string

const (
	ReservationActive    ReservationState = "ACTIVE"
	ReservationConverted ReservationState = "CONVERTED"
	ReservationCancelled ReservationState = "CANCELLED"
)

// Reservation (reserva) is a multi-day hold over a set of tickets bound to a customer.
// Its token is stamped on every ticket it holds.
type Reservation struct {
	ID           string           `json:"id"`
	RaffleID     string           `json:"raffle_id"`
	CustomerID   string           `json:"customer_id"`
	Token        string           `json:"-"`
	TicketIDs    []string         `json:"ticket_ids"`
	ExpiresAt    time.Time        `json:"expires_at"`
	State        ReservationState `json:"state"`
	Notes        string           `json:"notes,omitempty"`
	CancelReason string           `json:"cancel_reason,omitempty"`
	SaleID       *string          `json:"sale_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ReservationSummary is what callers get back after reserving.
type ReservationSummary struct {
	ReservationID string           `json:"reservation_id"`
	Token         string           `json:"token"`
	Customer      Customer         `json:"customer"`
	Numbers       []int            `json:"numbers"`
	Total         decimal.Decimal  `json:"total"`
	ExpiresAt     time.Time        `json:"expires_at"`
	State         ReservationState `json:"state"`
}
