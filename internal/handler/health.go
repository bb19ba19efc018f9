package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeeper/internal/service"
)

type HealthHandler struct {
	hub *service.Hub
	db  *sqlx.DB
}

// NewHealthHandler reports on the hub and, in cloud mode, the database.
// db may be nil.
func NewHealthHandler(hub *service.Hub, db *sqlx.DB) *HealthHandler {
	return &HealthHandler{hub: hub, db: db}
}

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Mode: h.hub.Mode()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: h.hub.Mode()})
}
