package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// RaffleService manages raffles and their ticket inventory.
type RaffleService struct {
	*core
}

// CreateRaffle stores the raffle together with tickets numbered 1..TotalTickets.
func (s *RaffleService) CreateRaffle(ctx context.Context, in model.CreateRaffleInput) (model.Raffle, error) {
	if err := in.Validate(); err != nil {
		return model.Raffle{}, err
	}
	raffle := model.Raffle{
		ID:           uuid.NewString(),
		Name:         in.Name,
		UnitPrice:    in.UnitPrice,
		TotalTickets: in.TotalTickets,
		DrawDate:     in.DrawDate,
		CreatedAt:    s.clock.Now(),
	}
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		return s.store.CreateRaffle(txCtx, raffle)
	})
	if err != nil {
		return model.Raffle{}, err
	}
	s.log.Info().Str("raffle", raffle.ID).Int("tickets", raffle.TotalTickets).Msg("raffle created")
	return raffle, nil
}

func (s *RaffleService) GetRaffle(ctx context.Context, raffleID string) (model.Raffle, error) {
	return s.store.GetRaffle(ctx, raffleID)
}

// ListTickets returns the raffle's tickets with expired holds reported as
// available. An empty state returns every ticket.
func (s *RaffleService) ListTickets(ctx context.Context, raffleID, state string) ([]model.Ticket, error) {
	var filter model.TicketState
	if strings.TrimSpace(state) != "" {
		var err error
		filter, err = model.ParseTicketState(state)
		if err != nil {
			return nil, model.Errorf(model.KindInvalidInput, "list tickets", "%v", err)
		}
	}
	if _, err := s.store.GetRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	tickets, err := s.store.ListTickets(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := tickets[:0]
	for _, t := range tickets {
		if eff := t.EffectiveState(now); eff != t.State {
			t.ClearHold()
			t.CustomerID = nil
			t.State = eff
		}
		if filter != "" && t.State != filter {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
