package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/broker"
	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/catalog"
	"github.com/ruelux/pos/internal/config"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/logger"
	"github.com/ruelux/pos/internal/metrics"
	"github.com/ruelux/pos/internal/router"
	"github.com/ruelux/pos/internal/service"
	"github.com/ruelux/pos/internal/store"
	"github.com/ruelux/pos/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("pos", cfg.LogLevel)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	erpClient := erp.New(cfg.ERPBaseURL, cfg.RequestTimeout)

	policy, err := workflow.ParsePolicy(cfg.ApprovalPolicy)
	if err != nil {
		return err
	}

	var opts []workflow.Option
	var ledger workflow.Ledger
	switch cfg.ApprovalLedger {
	case "postgres":
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("approval ledger: %w", err)
		}
		defer pool.Close()
		pg := store.NewApprovalLedger(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		ledger = pg
		opts = append(opts, workflow.WithApprovalMirror())
	case "memory":
		log.Warn().Msg("in-memory approval ledger: approvals are lost on restart and not shared between instances")
		ledger = workflow.NewMemoryLedger()
		opts = append(opts, workflow.WithApprovalMirror())
	default:
		ledger = erp.NewApprovalLedger(erpClient)
	}
	log.Info().Str("policy", policy.Name()).Str("ledger", cfg.ApprovalLedger).Msg("approval gate configured")

	var publisher broker.Publisher = broker.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := broker.Dial(cfg.AMQPURL, cfg.SlipExchange)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		publisher = amqpPub
		log.Info().Str("exchange", cfg.SlipExchange).Msg("slip publisher connected")
	} else {
		log.Info().Msg("AMQP_URL not set, slips will not be published")
	}

	opts = append(opts,
		workflow.WithTimeout(cfg.RequestTimeout),
		workflow.OnTransition(broker.ReceiptOnBilled(publisher)),
	)
	machine := workflow.NewMachine(erpClient, ledger, policy, opts...)

	carts := cart.NewStore()
	orders := service.NewOrderService(erpClient, carts, publisher, service.Settings{
		DefaultCustomer: cfg.DefaultCustomer,
		Warehouse:       cfg.Warehouse,
		Rooms:           cfg.Rooms,
	})

	r := router.New(cfg, router.Deps{
		ERP:     erpClient,
		Machine: machine,
		Menu:    catalog.NewCache(erpClient, cfg.MenuCacheTTL),
		Carts:   carts,
		Orders:  orders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("erp", cfg.ERPBaseURL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped cleanly")
	return nil
}
