package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruelux/pos/internal/board"
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/middleware"
	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/slip"
	"github.com/ruelux/pos/internal/workflow"
)

// OrderReader defines the order reads needed by order handlers.
// Satisfied by *erp.Client; narrow interface for testability.
type OrderReader interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
	GetOrder(ctx context.Context, name string) (order.Order, error)
}

// Transitioner advances orders through the workflow.
// Satisfied by *workflow.Machine.
type Transitioner interface {
	Advance(ctx context.Context, actor workflow.Actor, name, target string) (workflow.Outcome, error)
	Policy() workflow.ApprovalPolicy
}

// OrderHandler serves the order board and workflow actions.
type OrderHandler struct {
	orders  OrderReader
	machine Transitioner
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders OrderReader, machine Transitioner) *OrderHandler {
	return &OrderHandler{orders: orders, machine: machine}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders behind middleware.Authenticate.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{name}", h.Get)
	r.Patch("/{name}/status", h.UpdateStatus)
	r.Get("/{name}/slip", h.Slip)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// List returns the board for the caller's role. An unknown or missing tab
// falls back to the role's initial tab.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, err, "list orders")
		return
	}

	viewer := board.Viewer{Email: claims.Email, Role: claims.Role}
	writeJSON(w, http.StatusOK, board.Build(orders, viewer, r.URL.Query().Get("tab"), h.machine.Policy()))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err, "get order")
		return
	}

	actor := workflow.Actor{Email: claims.Email, Role: claims.Role}
	writeJSON(w, http.StatusOK, board.Card{
		Order:   o,
		Actions: workflow.AvailableActions(o, actor, h.machine.Policy()),
	})
}

// UpdateStatus advances the order one step. A transition still waiting on
// the other station answers 200 with waiting set; failures carry the last
// known-good order so the client never shows an unconfirmed state.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !enum.IsWorkflowState(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	actor := workflow.Actor{Email: claims.Email, Role: claims.Role}
	outcome, err := h.machine.Advance(r.Context(), actor, chi.URLParam(r, "name"), req.Status)
	if err != nil {
		status, body := errorBody(err, "advance order")
		var te *workflow.TransitionError
		if errors.As(err, &te) && te.LastKnown != nil {
			body["order"] = te.LastKnown
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// Slip returns the printable order slip, or one station's ticket when
// ?station= is given.
func (h *OrderHandler) Slip(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err, "get order for slip")
		return
	}

	station := r.URL.Query().Get("station")
	if station == "" {
		writeJSON(w, http.StatusOK, slip.Build(o))
		return
	}
	if station != enum.StationKitchen && station != enum.StationBar {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station"})
		return
	}
	for _, t := range slip.Tickets(o) {
		if t.Station == station {
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no items for station " + station})
}
