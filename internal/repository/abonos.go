package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

const abonoColumns = `id, sale_id, ticket_id, amount, payment_method, reference, notes, state,
	created_at, confirmed_at`

func scanAbono(row pgx.Row) (model.Abono, error) {
	var (
		a     model.Abono
		state string
	)
	err := row.Scan(&a.ID, &a.SaleID, &a.TicketID, &a.Amount, &a.PaymentMethod, &a.Reference, &a.Notes,
		&state, &a.CreatedAt, &a.ConfirmedAt)
	a.State = model.AbonoState(state)
	return a, err
}

func (s *Store) CreateAbono(ctx context.Context, a model.Abono) error {
	_, err := s.exec(ctx,
		`INSERT INTO abonos (id, sale_id, ticket_id, amount, payment_method, reference, notes, state, created_at, confirmed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.SaleID, a.TicketID, a.Amount, a.PaymentMethod, a.Reference, a.Notes, string(a.State),
		a.CreatedAt, a.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert abono: %w", err)
	}
	return nil
}

// LockAbono reads one abono and locks its row.
func (s *Store) LockAbono(ctx context.Context, id string) (model.Abono, error) {
	if !validID(id) {
		return model.Abono{}, model.Errorf(model.KindNotFound, "", "abono %s not found", id)
	}
	a, err := scanAbono(s.queryRow(ctx, `SELECT `+abonoColumns+` FROM abonos WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if nf := notFound(err, "abono", id); nf != nil {
			return model.Abono{}, nf
		}
		return model.Abono{}, fmt.Errorf("get abono: %w", err)
	}
	return a, nil
}

// UpdateAbono moves an abono through its review states. Amount and
// allocation are never rewritten.
func (s *Store) UpdateAbono(ctx context.Context, a model.Abono) error {
	_, err := s.exec(ctx,
		`UPDATE abonos SET state = $2, notes = $3, confirmed_at = $4 WHERE id = $1`,
		a.ID, string(a.State), a.Notes, a.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("update abono: %w", err)
	}
	return nil
}

func (s *Store) ListAbonosBySale(ctx context.Context, saleID string) ([]model.Abono, error) {
	if !validID(saleID) {
		return nil, nil
	}
	rows, err := s.query(ctx,
		`SELECT `+abonoColumns+` FROM abonos WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list abonos: %w", err)
	}
	defer rows.Close()

	var abonos []model.Abono
	for rows.Next() {
		a, err := scanAbono(rows)
		if err != nil {
			return nil, fmt.Errorf("scan abono: %w", err)
		}
		abonos = append(abonos, a)
	}
	return abonos, rows.Err()
}

func (s *Store) SumConfirmedBySale(ctx context.Context, saleID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.queryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM abonos WHERE sale_id = $1 AND state = 'CONFIRMED'`,
		saleID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum confirmed abonos: %w", err)
	}
	return sum, nil
}

// ConfirmedByTicket returns the confirmed total per ticket of the sale.
func (s *Store) ConfirmedByTicket(ctx context.Context, saleID string) (map[string]decimal.Decimal, error) {
	rows, err := s.query(ctx,
		`SELECT ticket_id, SUM(amount)
		 FROM abonos
		 WHERE sale_id = $1 AND state = 'CONFIRMED' AND ticket_id IS NOT NULL
		 GROUP BY ticket_id`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum abonos by ticket: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			ticketID string
			sum      decimal.Decimal
		)
		if err := rows.Scan(&ticketID, &sum); err != nil {
			return nil, fmt.Errorf("scan abono sum: %w", err)
		}
		totals[ticketID] = sum
	}
	return totals, rows.Err()
}
