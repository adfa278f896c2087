package service_test

import (
	"context"
	"testing"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

func TestCancellationService_CancelSale_PaidSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := partialSale(t, f)
	if _, err := f.engine.Payments.RegisterPayment(ctx, model.RegisterPaymentInput{SaleID: sale.Sale.ID, Amount: dec("200")}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	abonosBefore, _ := f.store.ListAbonosBySale(ctx, sale.Sale.ID)

	got, err := f.engine.Cancellations.CancelSale(ctx, sale.Sale.ID, "rifa aplazada")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.State != model.SaleCancelled || got.CancelReason != "rifa aplazada" || got.CancelledAt == nil {
		t.Fatalf("expected cancelled sale with reason, got %+v", got)
	}
	for _, n := range []int{3, 4, 5} {
		tk := f.store.ticket(f.id(n))
		if tk.State != model.TicketAvailable || tk.CustomerID != nil || tk.SaleID != nil || tk.HoldToken != "" || tk.HoldExpiresAt != nil {
			t.Fatalf("expected ticket %d back in inventory, got %+v", n, tk)
		}
	}

	abonosAfter, _ := f.store.ListAbonosBySale(ctx, sale.Sale.ID)
	if len(abonosAfter) != len(abonosBefore) {
		t.Fatalf("expected %d abonos untouched, got %d", len(abonosBefore), len(abonosAfter))
	}
	for i := range abonosAfter {
		if abonosAfter[i].State != abonosBefore[i].State || !abonosAfter[i].Amount.Equal(abonosBefore[i].Amount) {
			t.Fatalf("expected abono %s unchanged", abonosAfter[i].ID)
		}
	}

	_, err = f.engine.Cancellations.CancelSale(ctx, sale.Sale.ID, "")
	assertKind(t, err, model.ErrIllegalStateTransition)

	// Released tickets can be held again.
	f.hold(t, 3)
}

func TestCancellationService_AbandonSale(t *testing.T) {
	ctx := context.Background()

	t.Run("partial sale", func(t *testing.T) {
		f := newFixture(t)
		sale := partialSale(t, f)
		got, err := f.engine.Cancellations.AbandonSale(ctx, sale.Sale.ID, "sin contacto")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.State != model.SaleCancelled {
			t.Fatalf("expected CANCELLED, got %s", got.State)
		}
	})

	t.Run("paid sale", func(t *testing.T) {
		f := newFixture(t)
		sale := partialSale(t, f)
		if _, err := f.engine.Payments.RegisterPayment(ctx, model.RegisterPaymentInput{SaleID: sale.Sale.ID, Amount: dec("200")}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err := f.engine.Cancellations.AbandonSale(ctx, sale.Sale.ID, "")
		assertKind(t, err, model.ErrIllegalStateTransition)
	})

	t.Run("payments after cancel", func(t *testing.T) {
		f := newFixture(t)
		sale := partialSale(t, f)
		if _, err := f.engine.Cancellations.AbandonSale(ctx, sale.Sale.ID, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err := f.engine.Payments.RegisterPayment(ctx, model.RegisterPaymentInput{SaleID: sale.Sale.ID, Amount: dec("1")})
		assertKind(t, err, model.ErrIllegalStateTransition)
	})
}
