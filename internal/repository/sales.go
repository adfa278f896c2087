package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

const saleColumns = `id, raffle_id, customer_id, total, amount_paid, state, payment_method,
	notes, cancel_reason, created_at, updated_at, cancelled_at`

func scanSale(row pgx.Row) (model.Sale, error) {
	var (
		sale  model.Sale
		state string
	)
	err := row.Scan(&sale.ID, &sale.RaffleID, &sale.CustomerID, &sale.Total, &sale.AmountPaid, &state,
		&sale.PaymentMethod, &sale.Notes, &sale.CancelReason, &sale.CreatedAt, &sale.UpdatedAt, &sale.CancelledAt)
	sale.State = model.SaleState(state)
	return sale, err
}

func (s *Store) CreateSale(ctx context.Context, sale model.Sale) error {
	_, err := s.exec(ctx,
		`INSERT INTO sales (id, raffle_id, customer_id, total, amount_paid, state, payment_method, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sale.ID, sale.RaffleID, sale.CustomerID, sale.Total, sale.AmountPaid, string(sale.State),
		sale.PaymentMethod, sale.Notes, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, id string) (model.Sale, error) {
	return s.getSale(ctx, id, `SELECT `+saleColumns+` FROM sales WHERE id = $1`)
}

// LockSale reads one sale and locks its row.
func (s *Store) LockSale(ctx context.Context, id string) (model.Sale, error) {
	return s.getSale(ctx, id, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`)
}

func (s *Store) getSale(ctx context.Context, id, sql string) (model.Sale, error) {
	if !validID(id) {
		return model.Sale{}, model.Errorf(model.KindNotFound, "", "sale %s not found", id)
	}
	sale, err := scanSale(s.queryRow(ctx, sql, id))
	if err != nil {
		if nf := notFound(err, "sale", id); nf != nil {
			return model.Sale{}, nf
		}
		return model.Sale{}, fmt.Errorf("get sale: %w", err)
	}
	return sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale model.Sale) error {
	tag, err := s.exec(ctx,
		`UPDATE sales
		 SET amount_paid = $2, state = $3, cancel_reason = $4, cancelled_at = $5, updated_at = $6
		 WHERE id = $1`,
		sale.ID, sale.AmountPaid, string(sale.State), sale.CancelReason, sale.CancelledAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Errorf(model.KindNotFound, "", "sale %s not found", sale.ID)
	}
	return nil
}
