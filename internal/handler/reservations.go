package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CreateReservation handles POST /reservations
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReservationInput
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	summary, err := h.svc.Reservations.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// GetReservation handles GET /reservations/{id}
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Reservations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CancelReservation handles POST /reservations/{id}/cancel
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req motiveRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	if err := h.svc.Reservations.Cancel(r.Context(), chi.URLParam(r, "id"), req.Motive); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ConvertReservation handles POST /reservations/{id}/convert
func (h *Handler) ConvertReservation(w http.ResponseWriter, r *http.Request) {
	var req model.ConvertReservationInput
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	req.ReservationID = chi.URLParam(r, "id")

	detail, err := h.svc.Sales.ConvertReservation(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}
