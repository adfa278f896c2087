package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// PaymentLedger records abonos against sales and keeps amount_paid equal to
// the sum of confirmed abonos.
type PaymentLedger struct {
	*core
}

// RegisterPayment records a confirmed installment split evenly across the
// sale's tickets.
func (l *PaymentLedger) RegisterPayment(ctx context.Context, in model.RegisterPaymentInput) (model.SaleDetail, error) {
	const op = "register payment"
	if err := in.Validate(); err != nil {
		return model.SaleDetail{}, err
	}

	var detail model.SaleDetail
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		sale, err := l.lockPayableSale(txCtx, op, in.SaleID, in.Amount)
		if err != nil {
			return err
		}
		tickets, err := l.store.LockTicketsBySale(txCtx, sale.ID)
		if err != nil {
			return err
		}
		paidByTicket, err := l.store.ConfirmedByTicket(txCtx, sale.ID)
		if err != nil {
			return err
		}
		owed := make([]decimal.Decimal, len(tickets))
		for i, t := range tickets {
			owed[i] = decimal.Max(decimal.Zero, t.Price.Sub(paidByTicket[t.ID]))
		}

		now := l.clock.Now()
		if err := recordAbonos(txCtx, l.core, sale.ID, tickets, Allocate(in.Amount, owed), in.PaymentMethod, in.Notes, now); err != nil {
			return err
		}
		if err := reconcile(txCtx, l.core, &sale, tickets); err != nil {
			return err
		}
		detail, err = l.saleDetail(txCtx, sale)
		return err
	})
	if err != nil {
		return model.SaleDetail{}, err
	}

	l.log.Info().Str("sale", detail.Sale.ID).Str("amount", in.Amount.StringFixed(2)).Str("outstanding", detail.Outstanding.StringFixed(2)).Str("state", string(detail.Sale.State)).Msg("payment registered")
	l.publish(ctx, Event{Type: EventPaymentRegistered, RaffleID: detail.Sale.RaffleID, SaleID: detail.Sale.ID, TicketIDs: ticketIDs(detail.Tickets), Amount: in.Amount})
	return detail, nil
}

// SubmitPending records an unconfirmed abono against one ticket of the sale,
// awaiting manual review. It does not move amount_paid.
func (l *PaymentLedger) SubmitPending(ctx context.Context, in model.SubmitPendingPaymentInput) (model.Abono, error) {
	const op = "submit pending payment"
	if err := in.Validate(); err != nil {
		return model.Abono{}, err
	}

	var abono model.Abono
	var raffleID string
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		sale, err := l.lockPayableSale(txCtx, op, in.SaleID, in.Amount)
		if err != nil {
			return err
		}
		t, err := l.store.GetTicket(txCtx, in.TicketID)
		if err != nil {
			return err
		}
		if t.SaleID == nil || *t.SaleID != sale.ID {
			return model.Errorf(model.KindNotFound, op, "ticket %s is not part of sale %s", in.TicketID, sale.ID)
		}

		raffleID = sale.RaffleID
		abono = model.Abono{
			ID:            uuid.NewString(),
			SaleID:        sale.ID,
			TicketID:      &t.ID,
			Amount:        in.Amount,
			PaymentMethod: in.PaymentMethod,
			Reference:     in.Reference,
			State:         model.AbonoRegistered,
			CreatedAt:     l.clock.Now(),
		}
		return l.store.CreateAbono(txCtx, abono)
	})
	if err != nil {
		return model.Abono{}, err
	}

	l.log.Info().Str("abono", abono.ID).Str("sale", abono.SaleID).Str("amount", abono.Amount.StringFixed(2)).Msg("pending payment submitted")
	l.publish(ctx, Event{Type: EventPaymentSubmitted, RaffleID: raffleID, SaleID: abono.SaleID, AbonoID: abono.ID, TicketIDs: []string{in.TicketID}, Amount: abono.Amount})
	return abono, nil
}

// ConfirmPending promotes a registered abono to confirmed and reconciles the
// owning ticket and sale.
func (l *PaymentLedger) ConfirmPending(ctx context.Context, abonoID string) (model.SaleDetail, error) {
	const op = "confirm pending payment"
	var (
		detail model.SaleDetail
		abono  model.Abono
	)
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		abono, err = l.store.LockAbono(txCtx, abonoID)
		if err != nil {
			return err
		}
		if abono.State != model.AbonoRegistered {
			return model.Errorf(model.KindIllegalStateTransition, op, "abono is %s", abono.State)
		}
		sale, err := l.lockPayableSale(txCtx, op, abono.SaleID, abono.Amount)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		abono.State = model.AbonoConfirmed
		abono.ConfirmedAt = &now
		if err := l.store.UpdateAbono(txCtx, abono); err != nil {
			return err
		}

		tickets, err := l.store.LockTicketsBySale(txCtx, sale.ID)
		if err != nil {
			return err
		}
		if err := reconcile(txCtx, l.core, &sale, tickets); err != nil {
			return err
		}
		detail, err = l.saleDetail(txCtx, sale)
		return err
	})
	if err != nil {
		return model.SaleDetail{}, err
	}

	l.log.Info().Str("abono", abono.ID).Str("sale", detail.Sale.ID).Str("state", string(detail.Sale.State)).Msg("pending payment confirmed")
	l.publish(ctx, Event{Type: EventPaymentConfirmed, RaffleID: detail.Sale.RaffleID, SaleID: detail.Sale.ID, AbonoID: abono.ID, Amount: abono.Amount})
	return detail, nil
}

// VoidPending rejects a registered abono. Confirmed abonos are immutable.
func (l *PaymentLedger) VoidPending(ctx context.Context, abonoID, motive string) (model.Abono, error) {
	const op = "void pending payment"
	var (
		abono model.Abono
		sale  model.Sale
	)
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		abono, err = l.store.LockAbono(txCtx, abonoID)
		if err != nil {
			return err
		}
		if abono.State != model.AbonoRegistered {
			return model.Errorf(model.KindIllegalStateTransition, op, "abono is %s", abono.State)
		}
		if sale, err = l.store.GetSale(txCtx, abono.SaleID); err != nil {
			return err
		}
		abono.State = model.AbonoVoided
		if motive != "" {
			abono.Notes = motive
		}
		return l.store.UpdateAbono(txCtx, abono)
	})
	if err != nil {
		return model.Abono{}, err
	}

	l.log.Info().Str("abono", abono.ID).Str("motive", motive).Msg("pending payment voided")
	l.publish(ctx, Event{Type: EventPaymentVoided, RaffleID: sale.RaffleID, SaleID: abono.SaleID, AbonoID: abono.ID, Amount: abono.Amount, Motive: motive})
	return abono, nil
}

// lockPayableSale locks the sale and checks that amount fits its balance.
func (l *PaymentLedger) lockPayableSale(ctx context.Context, op, saleID string, amount decimal.Decimal) (model.Sale, error) {
	sale, err := l.store.LockSale(ctx, saleID)
	if err != nil {
		return model.Sale{}, err
	}
	if sale.State == model.SaleCancelled {
		return model.Sale{}, model.Errorf(model.KindIllegalStateTransition, op, "sale is cancelled")
	}
	if amount.GreaterThan(sale.Outstanding()) {
		return model.Sale{}, model.Errorf(model.KindExceedsBalance, op, "amount %s exceeds outstanding balance %s",
			amount.StringFixed(2), sale.Outstanding().StringFixed(2))
	}
	return sale, nil
}

// recordAbonos appends one confirmed abono per ticket with a positive share.
func recordAbonos(ctx context.Context, c *core, saleID string, tickets []model.Ticket, shares []decimal.Decimal, method, notes string, now time.Time) error {
	for i, share := range shares {
		if !share.IsPositive() {
			continue
		}
		ticketID := tickets[i].ID
		confirmedAt := now
		abono := model.Abono{
			ID:            uuid.NewString(),
			SaleID:        saleID,
			TicketID:      &ticketID,
			Amount:        share,
			PaymentMethod: method,
			Notes:         notes,
			State:         model.AbonoConfirmed,
			CreatedAt:     now,
			ConfirmedAt:   &confirmedAt,
		}
		if err := c.store.CreateAbono(ctx, abono); err != nil {
			return err
		}
	}
	return nil
}

// reconcile recomputes amount_paid from the confirmed ledger and derives
// sale and ticket states from it. A ticket whose own confirmed total reaches
// its price is paid even while the sale is still partially paid; a sale is
// paid when its balance reaches zero or every ticket is paid.
func reconcile(ctx context.Context, c *core, sale *model.Sale, tickets []model.Ticket) error {
	paid, err := c.store.SumConfirmedBySale(ctx, sale.ID)
	if err != nil {
		return err
	}
	paidByTicket, err := c.store.ConfirmedByTicket(ctx, sale.ID)
	if err != nil {
		return err
	}

	settled := paid.GreaterThanOrEqual(sale.Total)
	allPaid := len(tickets) > 0
	for i := range tickets {
		t := &tickets[i]
		next := t.State
		switch {
		case settled:
			next = model.TicketPaid
		case t.Price.IsPositive() && paidByTicket[t.ID].GreaterThanOrEqual(t.Price):
			next = model.TicketPaid
		case paid.IsPositive():
			next = model.TicketPartiallyPaid
		}
		if next != model.TicketPaid {
			allPaid = false
		}
		if next != t.State {
			t.State = next
			if err := c.store.UpdateTicket(ctx, *t); err != nil {
				return err
			}
		}
	}

	sale.AmountPaid = paid
	switch {
	case settled || allPaid:
		sale.State = model.SalePaid
	case paid.IsPositive():
		sale.State = model.SalePartiallyPaid
	default:
		sale.State = model.SalePending
	}
	sale.UpdatedAt = c.clock.Now()
	return c.store.UpdateSale(ctx, *sale)
}
