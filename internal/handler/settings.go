package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalkeeper/internal/service"
	"github.com/templui/goalkeeper/internal/view"
)

type SettingsHandler struct {
	hub *service.Hub
}

func NewSettingsHandler(hub *service.Hub) *SettingsHandler {
	return &SettingsHandler{hub: hub}
}

func (h *SettingsHandler) Currency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrencyResponse{Currency: h.hub.Currency()})
}

// SetCurrency changes the display currency for every session.
func (h *SettingsHandler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	var req CurrencyResponse
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.hub.SetCurrency(r.Context(), req.Currency)
	if errors.Is(err, view.ErrUnknownCurrency) {
		writeError(w, http.StatusBadRequest, "Unknown currency code")
		return
	}
	if err != nil {
		slog.Error("failed to set currency", "error", err, "currency", req.Currency)
		writeError(w, http.StatusInternalServerError, "Could not save currency.")
		return
	}

	writeJSON(w, http.StatusOK, CurrencyResponse{Currency: h.hub.Currency()})
}
