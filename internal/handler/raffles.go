package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CreateRaffle handles POST /raffles
// Creates the raffle and its numbered tickets.
func (h *Handler) CreateRaffle(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRaffleInput
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	raffle, err := h.svc.Raffles.CreateRaffle(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, raffle)
}

// GetRaffle handles GET /raffles/{id}
func (h *Handler) GetRaffle(w http.ResponseWriter, r *http.Request) {
	raffle, err := h.svc.Raffles.GetRaffle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raffle)
}

// ListTickets handles GET /raffles/{id}/tickets?state=
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.Raffles.ListTickets(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("state"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}
