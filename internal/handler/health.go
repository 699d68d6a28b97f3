package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Pinger checks that the ERP answers. Satisfied by *erp.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	erp     Pinger
	version string
}

func NewHealthHandler(erp Pinger, version string) *HealthHandler {
	return &HealthHandler{erp: erp, version: version}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health reports liveness. With ?deep=1 it also pings the ERP and answers
// 503 when the ERP is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "version": h.version}
	if r.URL.Query().Get("deep") != "1" {
		writeJSON(w, http.StatusOK, body)
		return
	}
	if err := h.erp.Ping(r.Context()); err != nil {
		body["status"] = "degraded"
		body["erp"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["erp"] = "ok"
	writeJSON(w, http.StatusOK, body)
}
