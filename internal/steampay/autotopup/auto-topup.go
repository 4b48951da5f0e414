package autotopup

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/M0R1S0N/steampay/internal/steampay/metrics"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/exchange"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type WalletBalanceSource interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

type ExchangeGateway interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	Transfer(ctx context.Context, amount decimal.Decimal) (exchange.TransferResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string)
}

type Config struct {
	TickPeriod       time.Duration
	MinWalletBalance decimal.Decimal
	TopupAmount      decimal.Decimal
	DryRun           bool
}

// Monitor keeps the wallet balance above a threshold by moving funds from the
// exchange. Each tick is independent: a failed tick is logged, reported and
// forgotten, and the next tick runs on schedule. The loop holds no state, so
// restarting the process resumes it safely.
type Monitor struct {
	wallet   WalletBalanceSource
	exchange ExchangeGateway
	notifier Notifier
	cfg      Config
	logger   *logging.ZapLogger
	done     chan struct{}
}

func New(
	cfg Config,
	wallet WalletBalanceSource,
	exchangeGateway ExchangeGateway,
	notifier Notifier,
	logger *logging.ZapLogger,
) *Monitor {
	return &Monitor{
		wallet:   wallet,
		exchange: exchangeGateway,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (m *Monitor) Run(ctx context.Context) {
	m.logger.InfoCtx(ctx, "auto-topup started",
		zap.String("minWalletBalance", m.cfg.MinWalletBalance.String()),
		zap.String("topupAmount", m.cfg.TopupAmount.String()),
		zap.Duration("tickPeriod", m.cfg.TickPeriod),
		zap.Bool("dryRun", m.cfg.DryRun),
	)
	m.notifier.Notify(ctx, "🔄 Auto-topup started")

	ticker := time.NewTicker(m.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.tick(ctx); err != nil {
				m.logger.ErrorCtx(ctx, "auto-topup tick failed", zap.Error(err))
				metrics.TopupTransfers.WithLabelValues("error").Inc()
				m.notifier.Notify(ctx, fmt.Sprintf("❌ Auto-topup error: %v", err))
			}
		}
	}
}

func (m *Monitor) Stop() {
	close(m.done)
}

func (m *Monitor) tick(ctx context.Context) error {
	var walletBalance, exchangeBalance decimal.Decimal

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		walletBalance, err = m.wallet.Balance(gCtx)
		if err != nil {
			return fmt.Errorf("failed to get wallet balance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exchangeBalance, err = m.exchange.Balance(gCtx)
		if err != nil {
			return fmt.Errorf("failed to get exchange balance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m.logger.InfoCtx(ctx, "balances checked",
		zap.String("wallet", walletBalance.StringFixed(2)),
		zap.String("exchange", exchangeBalance.StringFixed(2)),
	)

	if walletBalance.GreaterThanOrEqual(m.cfg.MinWalletBalance) {
		m.logger.DebugCtx(ctx, "topup not required")
		return nil
	}

	if exchangeBalance.LessThan(m.cfg.TopupAmount) {
		m.logger.WarnCtx(ctx, "exchange balance too low for topup",
			zap.String("needed", m.cfg.TopupAmount.String()),
			zap.String("available", exchangeBalance.StringFixed(2)),
		)
		metrics.TopupTransfers.WithLabelValues("skipped").Inc()
		m.notifier.Notify(ctx, fmt.Sprintf(
			"⚠️ Topup of %s USDT needed, but the exchange only holds %s USDT.\nWallet=%s < %s",
			m.cfg.TopupAmount, exchangeBalance.StringFixed(2),
			walletBalance.StringFixed(2), m.cfg.MinWalletBalance,
		))
		return nil
	}

	if m.cfg.DryRun {
		m.logger.InfoCtx(ctx, "dry run, transfer suppressed",
			zap.String("amount", m.cfg.TopupAmount.String()),
		)
		metrics.TopupTransfers.WithLabelValues("dry_run").Inc()
		m.notifier.Notify(ctx, fmt.Sprintf(
			"🧪 DRY RUN: wallet=%s < %s, exchange=%s USDT",
			walletBalance.StringFixed(2), m.cfg.MinWalletBalance, exchangeBalance.StringFixed(2),
		))
		return nil
	}

	result, err := m.exchange.Transfer(ctx, m.cfg.TopupAmount)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	m.logger.InfoCtx(ctx, "topup transfer completed",
		zap.String("amount", m.cfg.TopupAmount.String()),
		zap.String("retMsg", result.RetMsg),
	)
	metrics.TopupTransfers.WithLabelValues("ok").Inc()
	m.notifier.Notify(ctx, fmt.Sprintf(
		"⚡ Auto-topup: sent %s USDT\n📊 Balances: wallet=%s | exchange=%s USDT",
		m.cfg.TopupAmount, walletBalance.StringFixed(2), exchangeBalance.StringFixed(2),
	))
	return nil
}
