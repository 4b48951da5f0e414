package steampay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/M0R1S0N/steampay/internal/steampay/handlers"
	"github.com/M0R1S0N/steampay/internal/steampay/middleware"
	"github.com/M0R1S0N/steampay/internal/steampay/ratelimit"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type Config struct {
	ServerAddress   string
	AdminSecret     string
	ShutdownTimeout time.Duration
}

type Dependencies struct {
	Settlement interface {
		handlers.CallbackService
		handlers.AdminTopupService
	}
	Wallet     handlers.BalanceGettingService
	Repository interface {
		handlers.OrderFindingRepository
		handlers.OrdersListingRepository
		handlers.Pinger
	}
	Limiter *ratelimit.SlidingWindow
}

type Server struct {
	logger     *logging.ZapLogger
	httpServer *http.Server
	cfg        Config
}

func NewServer(cfg Config, deps Dependencies, logger *logging.ZapLogger) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: createMux(cfg, deps, logger),
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: srv,
	}
}

func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server ListenAndServe failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func createMux(cfg Config, deps Dependencies, logger *logging.ZapLogger) *chi.Mux {
	callbackHandler := handlers.NewCallbackHandler(deps.Settlement, logger)
	adminTopupHandler := handlers.NewAdminTopupHandler(deps.Settlement, cfg.AdminSecret, logger)
	orderFindingHandler := handlers.NewOrderFindingHandler(deps.Repository, logger)
	ordersListingHandler := handlers.NewOrdersListingHandler(deps.Repository, cfg.AdminSecret, logger)
	balanceHandler := handlers.NewBalanceGettingHandler(deps.Wallet, logger)
	healthHandler := handlers.NewHealthHandler(deps.Repository, logger)

	router := chi.NewRouter()
	router.Use(middleware.NewLoggerContext().CreateHandler)
	router.Use(middleware.NewPanicRecover(logger).CreateHandler)
	router.Use(middleware.NewMetrics().CreateHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	router.Get("/health", healthHandler.ServeHTTP)
	router.Head("/health", healthHandler.ServeHTTP)
	router.Get("/balance", balanceHandler.ServeHTTP)
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(router chi.Router) {
		router.Use(middleware.NewRateLimit(deps.Limiter, ratelimit.ActionCallback, logger).CreateHandler)
		router.Get("/plati/callback", callbackHandler.ServeHTTP)
	})

	router.Route("/orders", func(router chi.Router) {
		router.Get("/find", orderFindingHandler.ServeHTTP)
		router.Get("/{id}", orderFindingHandler.ByID)
	})

	router.Route("/admin", func(router chi.Router) {
		router.Use(middleware.NewRateLimit(deps.Limiter, ratelimit.ActionAdmin, logger).CreateHandler)
		router.Post("/topup", adminTopupHandler.ServeHTTP)
		router.Get("/orders", ordersListingHandler.ServeHTTP)
	})

	return router
}
