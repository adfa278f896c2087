package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInput identifies a buyer. Phone or national ID is required.
type CustomerInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
}

// Normalize trims fields and strips phone punctuation.
func (c *CustomerInput) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.NationalID = strings.TrimSpace(c.NationalID)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+':
			return r
		}
		return -1
	}, c.Phone)
}

func (c CustomerInput) validate(op string) error {
	if c.Phone == "" && c.NationalID == "" {
		return Errorf(KindInvalidInput, op, "customer phone or national_id is required")
	}
	if c.Name == "" {
		return Errorf(KindInvalidInput, op, "customer name is required")
	}
	return nil
}

type HoldTicketInput struct {
	TicketID string `json:"ticket_id"`
	Minutes  int    `json:"minutes"`
}

func (in HoldTicketInput) Validate() error {
	if in.TicketID == "" {
		return Errorf(KindInvalidInput, "hold ticket", "ticket_id is required")
	}
	if in.Minutes < 0 {
		return Errorf(KindInvalidInput, "hold ticket", "minutes must not be negative")
	}
	return nil
}

type CreateReservationInput struct {
	RaffleID  string        `json:"raffle_id"`
	Customer  CustomerInput `json:"customer"`
	TicketIDs []string      `json:"ticket_ids"`
	Days      int           `json:"days"`
	Notes     string        `json:"notes"`
}

func (in *CreateReservationInput) Validate() error {
	const op = "create reservation"
	if in.RaffleID == "" {
		return Errorf(KindInvalidInput, op, "raffle_id is required")
	}
	if len(in.TicketIDs) == 0 {
		return Errorf(KindInvalidInput, op, "at least one ticket is required")
	}
	if hasDuplicates(in.TicketIDs) {
		return Errorf(KindInvalidInput, op, "duplicate ticket ids")
	}
	if in.Days < 0 {
		return Errorf(KindInvalidInput, op, "days must not be negative")
	}
	in.Customer.Normalize()
	return in.Customer.validate(op)
}

// TicketHold pairs a ticket with the token its hold was granted under.
type TicketHold struct {
	TicketID string `json:"ticket_id"`
	Token    string `json:"token"`
}

type CreateSaleInput struct {
	RaffleID      string          `json:"raffle_id"`
	Customer      CustomerInput   `json:"customer"`
	Holds         []TicketHold    `json:"holds"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	PaidNow       decimal.Decimal `json:"paid_now"`
	Notes         string          `json:"notes"`
}

func (in *CreateSaleInput) Validate() error {
	const op = "create sale"
	if in.RaffleID == "" {
		return Errorf(KindInvalidInput, op, "raffle_id is required")
	}
	if len(in.Holds) == 0 {
		return Errorf(KindInvalidInput, op, "at least one held ticket is required")
	}
	ids := make([]string, len(in.Holds))
	for i, h := range in.Holds {
		if h.TicketID == "" || h.Token == "" {
			return Errorf(KindInvalidInput, op, "every hold needs ticket_id and token")
		}
		ids[i] = h.TicketID
	}
	if hasDuplicates(ids) {
		return Errorf(KindInvalidInput, op, "duplicate ticket ids")
	}
	if err := validateAmounts(op, in.Total, in.PaidNow); err != nil {
		return err
	}
	in.Customer.Normalize()
	return in.Customer.validate(op)
}

type ConvertReservationInput struct {
	ReservationID string          `json:"reservation_id"`
	Total         decimal.Decimal `json:"total"`
	PaidNow       decimal.Decimal `json:"paid_now"`
	PaymentMethod string          `json:"payment_method"`
}

func (in ConvertReservationInput) Validate() error {
	const op = "convert reservation"
	if in.ReservationID == "" {
		return Errorf(KindInvalidInput, op, "reservation_id is required")
	}
	return validateAmounts(op, in.Total, in.PaidNow)
}

type RegisterPaymentInput struct {
	SaleID        string          `json:"sale_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

func (in RegisterPaymentInput) Validate() error {
	const op = "register payment"
	if in.SaleID == "" {
		return Errorf(KindInvalidInput, op, "sale_id is required")
	}
	if !in.Amount.IsPositive() {
		return Errorf(KindInvalidAmount, op, "amount must be greater than zero")
	}
	return wholeCents(op, "amount", in.Amount)
}

type SubmitPendingPaymentInput struct {
	SaleID        string          `json:"sale_id"`
	TicketID      string          `json:"ticket_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference"`
}

func (in SubmitPendingPaymentInput) Validate() error {
	const op = "submit pending payment"
	if in.SaleID == "" || in.TicketID == "" {
		return Errorf(KindInvalidInput, op, "sale_id and ticket_id are required")
	}
	if !in.Amount.IsPositive() {
		return Errorf(KindInvalidAmount, op, "amount must be greater than zero")
	}
	return wholeCents(op, "amount", in.Amount)
}

type CreateRaffleInput struct {
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalTickets int             `json:"total_tickets"`
	DrawDate     *time.Time      `json:"draw_date"`
}

// MaxTicketsPerRaffle bounds bulk ticket generation.
const MaxTicketsPerRaffle = 100_000

func (in *CreateRaffleInput) Validate() error {
	const op = "create raffle"
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Errorf(KindInvalidInput, op, "raffle name is required")
	}
	if !in.UnitPrice.IsPositive() {
		return Errorf(KindInvalidAmount, op, "unit_price must be greater than zero")
	}
	if err := wholeCents(op, "unit_price", in.UnitPrice); err != nil {
		return err
	}
	if in.TotalTickets <= 0 || in.TotalTickets > MaxTicketsPerRaffle {
		return Errorf(KindInvalidInput, op, "total_tickets must be between 1 and %d", MaxTicketsPerRaffle)
	}
	return nil
}

func validateAmounts(op string, total, paidNow decimal.Decimal) error {
	if total.IsNegative() {
		return Errorf(KindInvalidAmount, op, "total must not be negative")
	}
	if paidNow.IsNegative() {
		return Errorf(KindInvalidAmount, op, "paid_now must not be negative")
	}
	if err := wholeCents(op, "total", total); err != nil {
		return err
	}
	return wholeCents(op, "paid_now", paidNow)
}

// wholeCents rejects amounts that a NUMERIC(14,2) column would round.
func wholeCents(op, field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return Errorf(KindInvalidAmount, op, "%s must be a whole number of cents", field)
	}
	return nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
