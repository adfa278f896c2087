// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

type HoldService interface {
	Acquire(ctx context.Context, in model.HoldTicketInput) (model.Hold, error)
	Release(ctx context.Context, ticketID, token string) error
	Verify(ctx context.Context, ticketID, token string) (model.HoldStatus, error)
}

type ReservationService interface {
	Create(ctx context.Context, in model.CreateReservationInput) (model.ReservationSummary, error)
	Get(ctx context.Context, reservationID string) (model.ReservationSummary, error)
	Cancel(ctx context.Context, reservationID, motive string) error
}

type SaleService interface {
	CreateSale(ctx context.Context, in model.CreateSaleInput) (model.SaleDetail, error)
	ConvertReservation(ctx context.Context, in model.ConvertReservationInput) (model.SaleDetail, error)
	GetSale(ctx context.Context, saleID string) (model.SaleDetail, error)
}

type PaymentService interface {
	RegisterPayment(ctx context.Context, in model.RegisterPaymentInput) (model.SaleDetail, error)
	SubmitPending(ctx context.Context, in model.SubmitPendingPaymentInput) (model.Abono, error)
	ConfirmPending(ctx context.Context, abonoID string) (model.SaleDetail, error)
	VoidPending(ctx context.Context, abonoID, motive string) (model.Abono, error)
}

type CancellationService interface {
	CancelSale(ctx context.Context, saleID, motive string) (model.Sale, error)
	AbandonSale(ctx context.Context, saleID, motive string) (model.Sale, error)
}

type RaffleService interface {
	CreateRaffle(ctx context.Context, in model.CreateRaffleInput) (model.Raffle, error)
	GetRaffle(ctx context.Context, raffleID string) (model.Raffle, error)
	ListTickets(ctx context.Context, raffleID, state string) ([]model.Ticket, error)
}

// Services are the engine components the HTTP API drives.
type Services struct {
	Holds         HoldService
	Reservations  ReservationService
	Sales         SaleService
	Payments      PaymentService
	Cancellations CancellationService
	Raffles       RaffleService
}

// FromEngine exposes every engine component over HTTP.
func FromEngine(e *service.Engine) Services {
	return Services{
		Holds:         e.Holds,
		Reservations:  e.Reservations,
		Sales:         e.Sales,
		Payments:      e.Payments,
		Cancellations: e.Cancellations,
		Raffles:       e.Raffles,
	}
}

// Handler holds all HTTP handlers for the raffle API.
type Handler struct {
	svc Services
}

// New constructs a Handler.
func New(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", HealthCheck)

	r.Route("/raffles", func(r chi.Router) {
		r.Post("/", h.CreateRaffle)
		r.Get("/{id}", h.GetRaffle)
		r.Get("/{id}/tickets", h.ListTickets)
	})
	r.Route("/tickets/{id}", func(r chi.Router) {
		r.Post("/hold", h.HoldTicket)
		r.Get("/hold", h.CheckHold)
		r.Post("/release", h.ReleaseTicket)
	})
	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Get("/{id}", h.GetReservation)
		r.Post("/{id}/cancel", h.CancelReservation)
		r.Post("/{id}/convert", h.ConvertReservation)
	})
	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.CreateSale)
		r.Get("/{id}", h.GetSale)
		r.Post("/{id}/payments", h.RegisterPayment)
		r.Post("/{id}/payments/pending", h.SubmitPendingPayment)
		r.Post("/{id}/cancel", h.CancelSale)
		r.Post("/{id}/abandon", h.AbandonSale)
	})
	r.Route("/payments/{id}", func(r chi.Router) {
		r.Post("/confirm", h.ConfirmPayment)
		r.Post("/void", h.VoidPayment)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body: "+err.Error())
}

// motiveRequest is the optional body of cancel/void endpoints.
type motiveRequest struct {
	Motive string `json:"motive"`
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}
