package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleState string

const (
	SalePending       SaleState = "PENDING"
	SalePartiallyPaid SaleState = "PARTIALLY_PAID"
	SalePaid          SaleState = "PAID"
	SaleCancelled     SaleState = "CANCELLED"
)

// Sale (venta) groups the tickets sold to one customer.
type Sale struct {
	ID            string          `json:"id"`
	RaffleID      string          `json:"raffle_id"`
	CustomerID    string          `json:"customer_id"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	State         SaleState       `json:"state"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
}

// Outstanding is max(0, total - amount paid).
func (s *Sale) Outstanding() decimal.Decimal {
	out := s.Total.Sub(s.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// SaleDetail is a sale with its tickets, ledger and buyer.
type SaleDetail struct {
	Sale        Sale            `json:"sale"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Customer    Customer        `json:"customer"`
	Tickets     []Ticket        `json:"tickets"`
	Abonos      []Abono         `json:"abonos"`
}

type AbonoState string

const (
	AbonoRegistered AbonoState = "REGISTERED"
	AbonoConfirmed  AbonoState = "CONFIRMED"
	AbonoVoided     AbonoState = "VOIDED"
)

// Abono is an append-only payment entry against a sale, optionally scoped to one ticket.
type Abono struct {
	ID            string          `json:"id"`
	SaleID        string          `json:"sale_id"`
	TicketID      *string         `json:"ticket_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	State         AbonoState      `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
}
