package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

const customerColumns = `id, name, phone, national_id, email, created_at`

func scanCustomer(row pgx.Row) (model.Customer, error) {
	var (
		c                        model.Customer
		phone, nationalID, email *string
	)
	if err := row.Scan(&c.ID, &c.Name, &phone, &nationalID, &email, &c.CreatedAt); err != nil {
		return model.Customer{}, err
	}
	c.Phone, c.NationalID, c.Email = deref(phone), deref(nationalID), deref(email)
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	if !validID(id) {
		return model.Customer{}, model.Errorf(model.KindNotFound, "", "customer %s not found", id)
	}
	c, err := scanCustomer(s.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if nf := notFound(err, "customer", id); nf != nil {
			return model.Customer{}, nf
		}
		return model.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *Store) FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	return s.findCustomer(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone)
}

func (s *Store) FindCustomerByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	return s.findCustomer(ctx, `SELECT `+customerColumns+` FROM customers WHERE national_id = $1`, nationalID)
}

func (s *Store) findCustomer(ctx context.Context, sql, key string) (*model.Customer, error) {
	c, err := scanCustomer(s.queryRow(ctx, sql, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts c unless another row already owns its phone or
// national ID. ON CONFLICT keeps the surrounding transaction usable, so the
// caller can re-read the winning row.
func (s *Store) CreateCustomer(ctx context.Context, c model.Customer) (bool, error) {
	tag, err := s.exec(ctx,
		`INSERT INTO customers (id, name, phone, national_id, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING`,
		c.ID, c.Name, nullString(c.Phone), nullString(c.NationalID), nullString(c.Email), c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert customer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
