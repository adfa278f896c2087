package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

// CreateSale handles POST /sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSaleInput
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	detail, err := h.svc.Sales.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GetSale handles GET /sales/{id}
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Sales.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// RegisterPayment handles POST /sales/{id}/payments
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterPaymentInput
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	req.SaleID = chi.URLParam(r, "id")

	detail, err := h.svc.Payments.RegisterPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// SubmitPendingPayment handles POST /sales/{id}/payments/pending
func (h *Handler) SubmitPendingPayment(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitPendingPaymentInput
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	req.SaleID = chi.URLParam(r, "id")

	abono, err := h.svc.Payments.SubmitPending(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, abono)
}

// ConfirmPayment handles POST /payments/{id}/confirm
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Payments.ConfirmPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// VoidPayment handles POST /payments/{id}/void
func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	var req motiveRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	abono, err := h.svc.Payments.VoidPending(r.Context(), chi.URLParam(r, "id"), req.Motive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, abono)
}

// CancelSale handles POST /sales/{id}/cancel
func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	h.cancelSale(w, r, h.svc.Cancellations.CancelSale)
}

// AbandonSale handles POST /sales/{id}/abandon
func (h *Handler) AbandonSale(w http.ResponseWriter, r *http.Request) {
	h.cancelSale(w, r, h.svc.Cancellations.AbandonSale)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request, cancel func(ctx context.Context, saleID, motive string) (model.Sale, error)) {
	var req motiveRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	sale, err := cancel(r.Context(), chi.URLParam(r, "id"), req.Motive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}
