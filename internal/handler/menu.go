package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruelux/pos/internal/catalog"
	"github.com/ruelux/pos/internal/config"
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/middleware"
)

// MenuSource serves the cached menu.
// Satisfied by *catalog.Cache; narrow interface for testability.
type MenuSource interface {
	Menu(ctx context.Context) ([]catalog.MenuItem, error)
	Invalidate()
}

// MenuHandler serves what the order-entry screen browses: the menu and the
// rooms an order can be seated in.
type MenuHandler struct {
	menu  MenuSource
	rooms []config.Room
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(menu MenuSource, rooms []config.Room) *MenuHandler {
	return &MenuHandler{menu: menu, rooms: rooms}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.With(middleware.RequireRole(enum.RoleAdmin)).Post("/menu/refresh", h.Refresh)
	r.Get("/rooms", h.Rooms)
}

// List returns the menu, optionally narrowed to one item group.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.Menu(r.Context())
	if err != nil {
		writeError(w, err, "load menu")
		return
	}

	group := r.URL.Query().Get("group")
	out := make([]catalog.MenuItem, 0, len(items))
	for _, it := range items {
		if group == "" || it.ItemGroup == group {
			out = append(out, it)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": out})
}

// Refresh drops the cached menu and loads it again.
func (h *MenuHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.menu.Invalidate()
	items, err := h.menu.Menu(r.Context())
	if err != nil {
		writeError(w, err, "refresh menu")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *MenuHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": h.rooms})
}
