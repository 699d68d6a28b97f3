package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/catalog"
	"github.com/ruelux/pos/internal/config"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/handler"
	"github.com/ruelux/pos/internal/metrics"
	mw "github.com/ruelux/pos/internal/middleware"
	"github.com/ruelux/pos/internal/service"
	"github.com/ruelux/pos/internal/workflow"
)

// Version is reported by /health.
const Version = "1.0.0"

// Deps are the long-lived services the handlers are built on.
type Deps struct {
	ERP     *erp.Client
	Machine *workflow.Machine
	Menu    *catalog.Cache
	Carts   *cart.Store
	Orders  *service.OrderService
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	handler.NewHealthHandler(d.ERP, Version).RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler())

	authHandler := handler.NewAuthHandler(d.ERP, d.Carts, cfg.JWTSecret, cfg.SessionTTL)
	authHandler.RegisterRoutes(r)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterSessionRoutes(r)

		menuHandler := handler.NewMenuHandler(d.Menu, cfg.Rooms)
		menuHandler.RegisterRoutes(r)

		pricing := cart.Policy{TaxRate: cfg.TaxRate, ServiceFeeRate: cfg.ServiceFeeRate}
		cartHandler := handler.NewCartHandler(d.Menu, d.Carts, d.Orders, pricing)
		r.Route("/cart", cartHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(d.ERP, d.Machine)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	log.Info().Msg("router initialized with all handlers")
	return r
}
