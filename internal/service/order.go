package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/broker"
	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/config"
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/order"
)

// Errors returned by the order service.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingOrderType = errors.New("order_type is required")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrInvalidRoom      = errors.New("invalid room")
	ErrInvalidTable     = errors.New("invalid table")
)

// OrderCreator creates orders in the ERP.
// Satisfied by *erp.Client; narrow interface for testability.
type OrderCreator interface {
	CreateOrder(ctx context.Context, p order.CreatePayload) (order.Order, error)
}

// CartStore is the part of the session cart store submission needs.
// Satisfied by *cart.Store.
type CartStore interface {
	Checkout(session string) ([]cart.Item, error)
	Release(session string, submitted bool)
}

// Settings are the submission defaults taken from configuration.
type Settings struct {
	DefaultCustomer string
	Warehouse       string
	Rooms           []config.Room
}

// SubmitRequest is the order-level input collected next to the cart.
type SubmitRequest struct {
	Customer  string
	Room      string
	Table     string
	OrderType string
}

// OrderService turns a session's cart into an ERP order.
type OrderService struct {
	orders    OrderCreator
	carts     CartStore
	publisher broker.Publisher
	settings  Settings
	now       func() time.Time
}

func NewOrderService(orders OrderCreator, carts CartStore, publisher broker.Publisher, settings Settings) *OrderService {
	if publisher == nil {
		publisher = broker.Nop{}
	}
	return &OrderService{
		orders:    orders,
		carts:     carts,
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
	}
}

// Submit validates the request and the session's cart, creates the order and
// only then clears the cart. A failed create leaves the cart intact so the
// user can retry. The cart is frozen for the duration, so a second submit or
// an edit racing this one fails with cart.ErrCheckoutPending instead of
// creating a duplicate order or being silently dropped.
func (s *OrderService) Submit(ctx context.Context, session, waiter string, req SubmitRequest) (order.Order, error) {
	items, err := s.carts.Checkout(session)
	if err != nil {
		return order.Order{}, err
	}
	if len(items) == 0 {
		return order.Order{}, ErrEmptyCart
	}
	if err := s.validate(req); err != nil {
		s.carts.Release(session, false)
		return order.Order{}, err
	}

	customer := strings.TrimSpace(req.Customer)
	if customer == "" {
		customer = s.settings.DefaultCustomer
	}

	payload := cart.BuildPayload(items, cart.SubmitInfo{
		Customer:     customer,
		CustomerName: customer,
		Waiter:       waiter,
		Room:         req.Room,
		Table:        strings.TrimSpace(req.Table),
		OrderType:    req.OrderType,
		Warehouse:    s.settings.Warehouse,
		Date:         s.now(),
	})

	created, err := s.orders.CreateOrder(ctx, payload)
	if err != nil {
		s.carts.Release(session, false)
		return order.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.carts.Release(session, true)
	log.Info().Str("order", created.Name).Str("waiter", waiter).Int("items", len(items)).Msg("order created")

	broker.PublishTickets(ctx, s.publisher, created)
	return created, nil
}

func (s *OrderService) validate(req SubmitRequest) error {
	if req.OrderType == "" {
		return ErrMissingOrderType
	}
	if !enum.IsOrderType(req.OrderType) {
		return ErrInvalidOrderType
	}

	room, ok := s.room(req.Room)
	if !ok {
		return ErrInvalidRoom
	}
	n, err := strconv.Atoi(strings.TrimSpace(req.Table))
	if err != nil || n < 1 || n > room.Tables {
		return fmt.Errorf("%w: %s has tables 1-%d", ErrInvalidTable, room.ID, room.Tables)
	}
	return nil
}

func (s *OrderService) room(id string) (config.Room, bool) {
	for _, r := range s.settings.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return config.Room{}, false
}

// IsValidationError reports whether err is a request problem rather than a
// backend failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrMissingOrderType) ||
		errors.Is(err, ErrInvalidOrderType) ||
		errors.Is(err, ErrInvalidRoom) ||
		errors.Is(err, ErrInvalidTable)
}
