package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// SettlementEngine turns held or reserved tickets into a sale.
type SettlementEngine struct {
	*core
	customers *CustomerResolver
}

// CreateSale settles tickets held under discrete single-ticket holds. Every
// ticket is locked and re-validated before anything is written, so a hold
// that expired between selection and submission, or a duplicate submit whose
// twin already committed, aborts the whole sale.
func (s *SettlementEngine) CreateSale(ctx context.Context, in model.CreateSaleInput) (model.SaleDetail, error) {
	const op = "create sale"
	if err := in.Validate(); err != nil {
		return model.SaleDetail{}, err
	}

	tokens := make(map[string]string, len(in.Holds))
	ids := make([]string, 0, len(in.Holds))
	for _, h := range in.Holds {
		tokens[h.TicketID] = h.Token
		ids = append(ids, h.TicketID)
	}

	var detail model.SaleDetail
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		raffle, err := s.store.GetRaffle(txCtx, in.RaffleID)
		if err != nil {
			return err
		}
		tickets, err := s.lockTickets(txCtx, op, ids)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for _, t := range tickets {
			if t.RaffleID != raffle.ID {
				return model.Errorf(model.KindNotFound, op, "ticket %s not found in raffle %s", t.ID, raffle.ID)
			}
			if t.ReservationID != nil {
				return model.Errorf(model.KindTicketNotHeld, op, "ticket %d belongs to a reservation", t.Number)
			}
			if err := checkHeld(op, t, tokens[t.ID], now); err != nil {
				return err
			}
		}

		customer, err := s.customers.Resolve(txCtx, in.Customer)
		if err != nil {
			return err
		}

		detail, err = s.settle(txCtx, settlement{
			raffle:        raffle,
			customer:      customer,
			tickets:       tickets,
			total:         in.Total,
			paidNow:       in.PaidNow,
			paymentMethod: in.PaymentMethod,
			notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return model.SaleDetail{}, err
	}

	s.logSale(detail, "sale created")
	s.publish(ctx, Event{Type: EventSaleCreated, RaffleID: detail.Sale.RaffleID, SaleID: detail.Sale.ID, TicketIDs: ticketIDs(detail.Tickets), Amount: detail.Sale.AmountPaid})
	return detail, nil
}

// ConvertReservation settles a reservation's tickets for its bound customer
// and marks the reservation converted.
func (s *SettlementEngine) ConvertReservation(ctx context.Context, in model.ConvertReservationInput) (model.SaleDetail, error) {
	const op = "convert reservation"
	if err := in.Validate(); err != nil {
		return model.SaleDetail{}, err
	}

	var detail model.SaleDetail
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.store.LockReservation(txCtx, in.ReservationID)
		if err != nil {
			return err
		}
		if r.State != model.ReservationActive {
			return model.Errorf(model.KindIllegalStateTransition, op, "reservation is %s", r.State)
		}
		raffle, err := s.store.GetRaffle(txCtx, r.RaffleID)
		if err != nil {
			return err
		}
		tickets, err := s.lockTickets(txCtx, op, r.TicketIDs)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for _, t := range tickets {
			if t.ReservationID == nil || *t.ReservationID != r.ID {
				return model.Errorf(model.KindTicketNotHeld, op, "ticket %d left the reservation", t.Number)
			}
			if err := checkHeld(op, t, r.Token, now); err != nil {
				return err
			}
		}
		customer, err := s.store.GetCustomer(txCtx, r.CustomerID)
		if err != nil {
			return err
		}

		detail, err = s.settle(txCtx, settlement{
			raffle:        raffle,
			customer:      customer,
			tickets:       tickets,
			total:         in.Total,
			paidNow:       in.PaidNow,
			paymentMethod: in.PaymentMethod,
			notes:         r.Notes,
		})
		if err != nil {
			return err
		}

		r.State = model.ReservationConverted
		r.SaleID = &detail.Sale.ID
		return s.store.UpdateReservation(txCtx, r)
	})
	if err != nil {
		return model.SaleDetail{}, err
	}

	s.logSale(detail, "reservation converted")
	s.publish(ctx, Event{Type: EventSaleCreated, RaffleID: detail.Sale.RaffleID, SaleID: detail.Sale.ID, ReservationID: in.ReservationID, TicketIDs: ticketIDs(detail.Tickets), Amount: detail.Sale.AmountPaid})
	return detail, nil
}

// GetSale returns the sale with its tickets, ledger and customer.
func (s *SettlementEngine) GetSale(ctx context.Context, saleID string) (model.SaleDetail, error) {
	sale, err := s.store.GetSale(ctx, saleID)
	if err != nil {
		return model.SaleDetail{}, err
	}
	return s.saleDetail(ctx, sale)
}

type settlement struct {
	raffle        model.Raffle
	customer      model.Customer
	tickets       []model.Ticket
	total         decimal.Decimal
	paidNow       decimal.Decimal
	paymentMethod string
	notes         string
}

// settle writes the sale, binds the validated tickets to it, records the
// initial payment as confirmed abonos and reconciles states.
func (s *SettlementEngine) settle(ctx context.Context, in settlement) (model.SaleDetail, error) {
	now := s.clock.Now()
	count := decimal.NewFromInt(int64(len(in.tickets)))
	total := in.total
	if total.IsZero() {
		total = in.raffle.UnitPrice.Mul(count)
	}

	// Overpayment is not recorded; the ledger never exceeds the total.
	paid := decimal.Min(in.paidNow, total)
	ticketState, saleState := model.TicketReserved, model.SalePending
	switch {
	case paid.GreaterThanOrEqual(total):
		ticketState, saleState = model.TicketPaid, model.SalePaid
	case paid.IsPositive():
		ticketState, saleState = model.TicketPartiallyPaid, model.SalePartiallyPaid
	}

	sale := model.Sale{
		ID:            uuid.NewString(),
		RaffleID:      in.raffle.ID,
		CustomerID:    in.customer.ID,
		Total:         total,
		AmountPaid:    decimal.Zero,
		State:         saleState,
		PaymentMethod: in.paymentMethod,
		Notes:         in.notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateSale(ctx, sale); err != nil {
		return model.SaleDetail{}, err
	}

	owed := make([]decimal.Decimal, len(in.tickets))
	for i := range in.tickets {
		t := &in.tickets[i]
		t.ClearHold()
		t.State = ticketState
		t.CustomerID = &in.customer.ID
		t.SaleID = &sale.ID
		t.Price = in.raffle.UnitPrice
		owed[i] = t.Price
		if err := s.store.UpdateTicket(ctx, *t); err != nil {
			return model.SaleDetail{}, err
		}
	}

	if paid.IsPositive() {
		if err := recordAbonos(ctx, s.core, sale.ID, in.tickets, Allocate(paid, owed), in.paymentMethod, in.notes, now); err != nil {
			return model.SaleDetail{}, err
		}
	}
	if err := reconcile(ctx, s.core, &sale, in.tickets); err != nil {
		return model.SaleDetail{}, err
	}
	return s.saleDetail(ctx, sale)
}

func (s *SettlementEngine) logSale(d model.SaleDetail, msg string) {
	s.log.Info().
		Str("sale", d.Sale.ID).
		Str("customer", d.Customer.ID).
		Int("tickets", len(d.Tickets)).
		Str("total", d.Sale.Total.StringFixed(2)).
		Str("paid", d.Sale.AmountPaid.StringFixed(2)).
		Str("state", string(d.Sale.State)).
		Msg(msg)
}
