package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TicketState is the closed set of ticket states. Values are persisted in
// their English spelling; ParseTicketState also accepts the legacy Spanish
// vocabulary found in older rows.
type TicketState string

const (
	TicketAvailable     TicketState = "AVAILABLE"
	TicketReserved      TicketState = "RESERVED"
	TicketPartiallyPaid TicketState = "PARTIALLY_PAID"
	TicketPaid          TicketState = "PAID"
	TicketVoided        TicketState = "VOIDED"
	TicketTransferred   TicketState = "TRANSFERRED"
)

var ticketStateAliases = map[string]TicketState{
	"AVAILABLE":      TicketAvailable,
	"DISPONIBLE":     TicketAvailable,
	"RESERVED":       TicketReserved,
	"RESERVADA":      TicketReserved,
	"HELD":           TicketReserved,
	"BLOQUEADA":      TicketReserved,
	"PARTIALLY_PAID": TicketPartiallyPaid,
	"ABONADA":        TicketPartiallyPaid,
	"PAID":           TicketPaid,
	"PAGADA":         TicketPaid,
	"VENDIDA":        TicketPaid,
	"VOIDED":         TicketVoided,
	"ANULADA":        TicketVoided,
	"TRANSFERRED":    TicketTransferred,
	"TRANSFERIDA":    TicketTransferred,
}

var legacyTicketStates = map[TicketState]string{
	TicketAvailable:     "DISPONIBLE",
	TicketReserved:      "RESERVADA",
	TicketPartiallyPaid: "ABONADA",
	TicketPaid:          "PAGADA",
	TicketVoided:        "ANULADA",
	TicketTransferred:   "TRANSFERIDA",
}

// ParseTicketState normalizes either vocabulary, case-insensitively.
func ParseTicketState(s string) (TicketState, error) {
	st, ok := ticketStateAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown ticket state %q", s)
	}
	return st, nil
}

// Legacy returns the Spanish spelling of the state.
func (s TicketState) Legacy() string {
	return legacyTicketStates[s]
}

// Ticket (boleta) is one numbered unit of raffle inventory.
type Ticket struct {
	ID            string          `json:"id"`
	RaffleID      string          `json:"raffle_id"`
	Number        int             `json:"number"`
	State         TicketState     `json:"state"`
	HoldToken     string          `json:"-"`
	HoldExpiresAt *time.Time      `json:"hold_expires_at,omitempty"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	SaleID        *string         `json:"sale_id,omitempty"`
	ReservationID *string         `json:"reservation_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// HasActiveHold reports whether the ticket carries a hold that has not expired at now.
func (t *Ticket) HasActiveHold(now time.Time) bool {
	return t.HoldToken != "" && t.HoldExpiresAt != nil && !now.After(*t.HoldExpiresAt)
}

// IsSold reports whether the ticket already belongs to a sale.
func (t *Ticket) IsSold() bool {
	if t.SaleID != nil {
		return true
	}
	switch t.State {
	case TicketPartiallyPaid, TicketPaid, TicketTransferred:
		return true
	}
	return false
}

// EffectiveState resolves lazy expiry: a reserved ticket whose hold lapsed
// and which never reached a sale reads as available.
func (t *Ticket) EffectiveState(now time.Time) TicketState {
	if t.State == TicketReserved && t.SaleID == nil && !t.HasActiveHold(now) {
		return TicketAvailable
	}
	return t.State
}

// ClearHold drops the token and expiry.
func (t *Ticket) ClearHold() {
	t.HoldToken = ""
	t.HoldExpiresAt = nil
	t.ReservationID = nil
}

// Release returns the ticket to inventory, clearing every reference.
func (t *Ticket) Release() {
	t.ClearHold()
	t.State = TicketAvailable
	t.CustomerID = nil
	t.SaleID = nil
	t.Price = decimal.Zero
}

// Hold is a granted exclusive claim on one ticket.
type Hold struct {
	TicketID  string    `json:"ticket_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HoldStatus is the read-only result of checking a hold.
type HoldStatus struct {
	Found   bool `json:"found"`
	Valid   bool `json:"valid"`
	Expired bool `json:"expired"`
}
