package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

type holdRequest struct {
	Minutes int `json:"minutes"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

// HoldTicket handles POST /tickets/{id}/hold
// The returned token is the only proof of the hold; it is never shown again.
func (h *Handler) HoldTicket(w http.ResponseWriter, r *http.Request) {
	var req holdRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	hold, err := h.svc.Holds.Acquire(r.Context(), model.HoldTicketInput{
		TicketID: chi.URLParam(r, "id"),
		Minutes:  req.Minutes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hold)
}

// ReleaseTicket handles POST /tickets/{id}/release
func (h *Handler) ReleaseTicket(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	if err := h.svc.Holds.Release(r.Context(), chi.URLParam(r, "id"), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// CheckHold handles GET /tickets/{id}/hold?token=
func (h *Handler) CheckHold(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Holds.Verify(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
