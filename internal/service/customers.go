package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CustomerResolver finds or creates a customer, matching by phone first and
// national ID second.
type CustomerResolver struct {
	*core
}

// Resolve must run inside the caller's transaction.
func (r *CustomerResolver) Resolve(ctx context.Context, in model.CustomerInput) (model.Customer, error) {
	in.Normalize()
	existing, err := r.find(ctx, in)
	if err != nil {
		return model.Customer{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	c := model.Customer{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Phone:      in.Phone,
		NationalID: in.NationalID,
		Email:      in.Email,
		CreatedAt:  r.clock.Now(),
	}
	created, err := r.store.CreateCustomer(ctx, c)
	if err != nil {
		return model.Customer{}, err
	}
	if created {
		r.log.Debug().Str("customer", c.ID).Msg("customer created")
		return c, nil
	}

	// Lost the insert race to a concurrent sale for the same buyer.
	existing, err = r.find(ctx, in)
	if err != nil {
		return model.Customer{}, err
	}
	if existing == nil {
		return model.Customer{}, fmt.Errorf("resolve customer: conflicting insert not visible")
	}
	return *existing, nil
}

func (r *CustomerResolver) find(ctx context.Context, in model.CustomerInput) (*model.Customer, error) {
	if in.Phone != "" {
		c, err := r.store.FindCustomerByPhone(ctx, in.Phone)
		if err != nil || c != nil {
			return c, err
		}
	}
	if in.NationalID != "" {
		return r.store.FindCustomerByNationalID(ctx, in.NationalID)
	}
	return nil, nil
}
