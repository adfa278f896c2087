package service

import (
	"context"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CancellationService unwinds sales. Tickets go back to inventory; the abono
// ledger is left as it was, since refunds are handled outside the engine.
type CancellationService struct {
	*core
}

// CancelSale cancels a sale in any state other than cancelled.
func (c *CancellationService) CancelSale(ctx context.Context, saleID, motive string) (model.Sale, error) {
	return c.cancel(ctx, "cancel sale", saleID, motive, false)
}

// AbandonSale drops a sale the buyer walked away from. Paid sales cannot be
// abandoned.
func (c *CancellationService) AbandonSale(ctx context.Context, saleID, motive string) (model.Sale, error) {
	return c.cancel(ctx, "abandon sale", saleID, motive, true)
}

func (c *CancellationService) cancel(ctx context.Context, op, saleID, motive string, unpaidOnly bool) (model.Sale, error) {
	var (
		sale    model.Sale
		tickets []model.Ticket
	)
	err := c.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		sale, err = c.store.LockSale(txCtx, saleID)
		if err != nil {
			return err
		}
		if sale.State == model.SaleCancelled {
			return model.Errorf(model.KindIllegalStateTransition, op, "sale is already cancelled")
		}
		if unpaidOnly && sale.State == model.SalePaid {
			return model.Errorf(model.KindIllegalStateTransition, op, "sale is fully paid")
		}

		tickets, err = c.store.LockTicketsBySale(txCtx, sale.ID)
		if err != nil {
			return err
		}
		for i := range tickets {
			tickets[i].Release()
			if err := c.store.UpdateTicket(txCtx, tickets[i]); err != nil {
				return err
			}
		}

		now := c.clock.Now()
		sale.State = model.SaleCancelled
		sale.CancelReason = motive
		sale.CancelledAt = &now
		sale.UpdatedAt = now
		return c.store.UpdateSale(txCtx, sale)
	})
	if err != nil {
		return model.Sale{}, err
	}

	c.log.Info().Str("sale", sale.ID).Int("tickets", len(tickets)).Str("motive", motive).Msg(op)
	c.publish(ctx, Event{Type: EventSaleCancelled, RaffleID: sale.RaffleID, SaleID: sale.ID, TicketIDs: ticketIDs(tickets), Amount: sale.AmountPaid, Motive: motive})
	return sale, nil
}
