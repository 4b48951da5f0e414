package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/M0R1S0N/steampay/cmd/steampay/config"
	"github.com/M0R1S0N/steampay/internal/steampay"
	"github.com/M0R1S0N/steampay/internal/steampay/autotopup"
	"github.com/M0R1S0N/steampay/internal/steampay/data/database"
	"github.com/M0R1S0N/steampay/internal/steampay/data/dbrepository"
	"github.com/M0R1S0N/steampay/internal/steampay/notify"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/exchange"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/marketplace"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/rates"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/wallet"
	"github.com/M0R1S0N/steampay/internal/steampay/ratelimit"
	"github.com/M0R1S0N/steampay/internal/steampay/service"
	"github.com/M0R1S0N/steampay/pkg/logging"
	"github.com/M0R1S0N/steampay/pkg/pgxstorage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewZapLogger(zapcore.DebugLevel)
	if err != nil {
		log.Fatal(err)
	}

	dbFactory := database.NewPgxDatabaseFactory(cfg.DB)
	storage, err := pgxstorage.New(dbFactory)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()
	repository := dbrepository.New(storage, logger)

	notifier := notify.New(cfg.Telegram, logger)
	walletClient := wallet.New(cfg.Wallet, logger)
	exchangeClient := exchange.New(cfg.Exchange, logger)
	marketplaceClient := marketplace.New(cfg.Marketplace, logger)
	ratesClient := rates.New(cfg.Rates, logger)

	settlement := service.NewSettlement(
		cfg.Settlement,
		marketplaceClient,
		walletClient,
		ratesClient,
		repository,
		notifier,
		logger,
	)
	monitor := autotopup.New(cfg.Topup, walletClient, exchangeClient, notifier, logger)

	server := steampay.NewServer(
		cfg.Server,
		steampay.Dependencies{
			Settlement: settlement,
			Wallet:     walletClient,
			Repository: repository,
			Limiter:    ratelimit.New(),
		},
		logger,
	)

	rootCtx, cancelCtx := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGABRT,
	)
	defer cancelCtx()

	if err := run(rootCtx, cfg, server, monitor, logger); err != nil {
		logger.ErrorCtx(rootCtx, "Server shutdown with error", zap.Error(err))
	} else {
		logger.InfoCtx(rootCtx, "Server shutdown gracefully")
	}
}

func run(
	rootCtx context.Context,
	cfg *config.Config,
	server *steampay.Server,
	monitor *autotopup.Monitor,
	logger *logging.ZapLogger,
) error {
	g, ctx := errgroup.WithContext(rootCtx)

	context.AfterFunc(ctx, func() {
		ctx, cancelCtx := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelCtx()

		<-ctx.Done()
		log.Fatal("failed to gracefully shutdown the server")
	})

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		monitor.Run(ctx)
		return nil
	})

	g.Go(func() error {
		defer logger.InfoCtx(ctx, "Shutting down server")
		<-ctx.Done()
		monitor.Stop()
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("goroutine error occured: %w", err)
	}

	return nil
}
