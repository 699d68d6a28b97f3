package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/catalog"
	"github.com/ruelux/pos/internal/middleware"
	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/service"
)

// MenuLookup resolves an item code against the menu.
// Satisfied by *catalog.Cache; narrow interface for testability.
type MenuLookup interface {
	Lookup(ctx context.Context, code string) (catalog.MenuItem, error)
}

// CartStore defines the session cart operations needed by cart handlers.
// Satisfied by *cart.Store.
type CartStore interface {
	Items(session string) []cart.Item
	Update(session string, fn func(c *cart.Cart) error) ([]cart.Item, error)
	Drop(session string)
}

// OrderSubmitter turns the session's cart into an order.
// Satisfied by *service.OrderService.
type OrderSubmitter interface {
	Submit(ctx context.Context, session, waiter string, req service.SubmitRequest) (order.Order, error)
}

// CartHandler handles the order-entry cart of the signed-in session.
type CartHandler struct {
	menu    MenuLookup
	carts   CartStore
	orders  OrderSubmitter
	pricing cart.Policy
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(menu MenuLookup, carts CartStore, orders OrderSubmitter, pricing cart.Policy) *CartHandler {
	return &CartHandler{menu: menu, carts: carts, orders: orders, pricing: pricing}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted at /cart behind middleware.Authenticate.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Discard)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{index}", h.UpdateItem)
	r.Delete("/items/{index}", h.RemoveItem)
	r.Post("/submit", h.Submit)
}

// --- Request / Response types ---

type addItemRequest struct {
	ItemCode           string   `json:"item_code"`
	Idx                *int     `json:"idx"`
	Quantity           int      `json:"quantity"`
	Variant            string   `json:"variant"`
	AddOns             []string `json:"add_ons"`
	SpecialInstruction string   `json:"special_instruction"`
	ServeTime          string   `json:"serve_time"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type submitRequest struct {
	Customer  string `json:"customer"`
	Room      string `json:"room"`
	Table     string `json:"table"`
	OrderType string `json:"order_type"`
}

// --- Handlers ---

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.pricing.Summarize(h.carts.Items(session)))
}

// AddItem prices the selection from the menu and merges it into the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.ItemCode = strings.TrimSpace(req.ItemCode)
	if req.ItemCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_code is required"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	mi, err := h.menu.Lookup(r.Context(), req.ItemCode)
	if err != nil {
		writeError(w, err, "lookup menu item")
		return
	}

	candidate := cart.Item{
		Name:               mi.Code,
		Idx:                req.Idx,
		Price:              mi.Price,
		Quantity:           req.Quantity,
		Variant:            req.Variant,
		ItemGroup:          mi.ItemGroup,
		SpecialInstruction: req.SpecialInstruction,
		ServeTime:          req.ServeTime,
		AddOnCatalog:       mi.AddOns,
		AddOns:             req.AddOns,
	}
	items, err := h.carts.Update(session, func(c *cart.Cart) error {
		return c.Add(candidate)
	})
	if err != nil {
		writeError(w, err, "add cart item")
		return
	}
	writeJSON(w, http.StatusOK, h.pricing.Summarize(items))
}

// UpdateItem sets the quantity of one line. Zero removes it.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}

	items, err := h.carts.Update(session, func(c *cart.Cart) error {
		return c.UpdateQuantity(index, *req.Quantity)
	})
	if err != nil {
		writeError(w, err, "update cart item")
		return
	}
	writeJSON(w, http.StatusOK, h.pricing.Summarize(items))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}

	items, err := h.carts.Update(session, func(c *cart.Cart) error {
		return c.Remove(index)
	})
	if err != nil {
		writeError(w, err, "remove cart item")
		return
	}
	writeJSON(w, http.StatusOK, h.pricing.Summarize(items))
}

// Discard empties the cart without creating an order.
func (h *CartHandler) Discard(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	h.carts.Drop(session)
	writeJSON(w, http.StatusOK, h.pricing.Summarize(nil))
}

// Submit creates the order from the cart. The cart survives a failed submit.
func (h *CartHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := h.orders.Submit(r.Context(), claims.SessionID.String(), claims.Email, service.SubmitRequest{
		Customer:  req.Customer,
		Room:      req.Room,
		Table:     req.Table,
		OrderType: req.OrderType,
	})
	if err != nil {
		writeError(w, err, "submit order")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return "", false
	}
	return claims.SessionID.String(), true
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return 0, false
	}
	return index, true
}
