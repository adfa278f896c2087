package handler

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/model"
)

var kindStatus = map[model.Kind]int{
	model.KindNotFound:               http.StatusNotFound,
	model.KindAlreadySold:            http.StatusConflict,
	model.KindAlreadyHeld:            http.StatusConflict,
	model.KindTicketNotHeld:          http.StatusConflict,
	model.KindIllegalStateTransition: http.StatusConflict,
	model.KindInvalidToken:           http.StatusForbidden,
	model.KindInvalidAmount:          http.StatusBadRequest,
	model.KindInvalidInput:           http.StatusBadRequest,
	model.KindExceedsBalance:         http.StatusUnprocessableEntity,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind model.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err by kind. Internal errors are logged and
// reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, model.KindInternal.String(), "internal error")
		return
	}
	writeError(w, status, kind.String(), err.Error())
}
