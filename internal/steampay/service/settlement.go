package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/metrics"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/wallet"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type Config struct {
	DefaultServiceID string
	CommissionRate   decimal.Decimal
	MinSend          decimal.Decimal
}

// Settlement runs the order intake pipeline: verify the payment event, price
// it, create the wallet order, record it, settle it. Each inbound event gets
// exactly one pass; repeats short-circuit on the external id.
type Settlement struct {
	cfg         Config
	marketplace MarketplaceGateway
	wallet      WalletGateway
	rates       RateSource
	repository  OrderRepository
	notifier    Notifier
	logger      *logging.ZapLogger
}

func NewSettlement(
	cfg Config,
	marketplaceGateway MarketplaceGateway,
	walletGateway WalletGateway,
	rates RateSource,
	repository OrderRepository,
	notifier Notifier,
	logger *logging.ZapLogger,
) *Settlement {
	return &Settlement{
		cfg:         cfg,
		marketplace: marketplaceGateway,
		wallet:      walletGateway,
		rates:       rates,
		repository:  repository,
		notifier:    notifier,
		logger:      logger,
	}
}

type PaymentEvent struct {
	Code  string
	Login string
}

type Result struct {
	OrderID          string
	Message          string
	AlreadyProcessed bool
	Paid             bool
}

// ProcessPaymentEvent handles one marketplace payment notification.
// Once started, the pipeline runs to completion even if the caller
// disconnects: abandoning it mid-flight would orphan wallet-side state.
func (s *Settlement) ProcessPaymentEvent(ctx context.Context, event PaymentEvent) (Result, error) {
	ctx = context.WithoutCancel(ctx)

	purchase, err := s.marketplace.UniqueCode(ctx, event.Code)
	if err != nil {
		return Result{}, fmt.Errorf("failed to verify unique code: %w", err)
	}
	if !purchase.Ready() {
		return Result{}, fmt.Errorf("%w: state=%d", ErrCodeNotReady, purchase.State)
	}

	login := event.Login
	if login == "" {
		login = purchase.FallbackLogin()
	}

	existing, err := s.repository.GetOrderByExternalID(ctx, event.Code)
	if err == nil {
		s.logger.InfoCtx(ctx, "payment event already processed",
			zap.String("externalID", event.Code),
			zap.String("orderID", existing.ID),
		)
		metrics.Orders.WithLabelValues("duplicate").Inc()
		return alreadyProcessed(existing), nil
	}
	if !errors.Is(err, data.ErrOrderNotFound) {
		return Result{}, fmt.Errorf("failed to check for existing order: %w", err)
	}

	s.notifier.Notify(ctx, fmt.Sprintf(
		"⚙️ New payment %s\n%s %s → %s",
		event.Code, purchase.Amount.StringFixed(2), purchase.Currency, login,
	))

	rate := s.rates.USDRate(ctx, purchase.Currency)
	payable := ComputePayable(purchase.Amount, rate, s.cfg.CommissionRate, s.cfg.MinSend)
	s.logger.InfoCtx(ctx, "payment priced",
		zap.String("externalID", event.Code),
		zap.String("gross", purchase.Amount.StringFixed(2)),
		zap.String("currency", purchase.Currency),
		zap.String("rate", rate.String()),
		zap.String("payable", payable.StringFixed(2)),
	)

	result, err := s.fulfill(ctx, event.Code, login, payable)
	if err != nil {
		return Result{}, err
	}

	if result.Paid {
		s.notifier.Notify(ctx, fmt.Sprintf(
			"💰 Order %s paid\n📥 Received: %s %s\n💵 Sent: %s USD\n👤 %s",
			result.OrderID, purchase.Amount.StringFixed(2), purchase.Currency,
			payable.StringFixed(2), login,
		))
	}
	return result, nil
}

// fulfill runs steps shared by the webhook and admin paths: wallet order
// creation, ledger write, settlement, status update. The order is created
// upstream before anything is persisted, so the ledger only ever holds orders
// that genuinely exist.
func (s *Settlement) fulfill(ctx context.Context, externalID, login string, amount decimal.Decimal) (Result, error) {
	created, err := s.wallet.CreateOrder(ctx, wallet.CreateOrderRequest{
		ExternalID: externalID,
		ServiceID:  s.cfg.DefaultServiceID,
		Login:      login,
		Amount:     amount,
	})
	if err != nil {
		metrics.Orders.WithLabelValues("failed").Inc()
		s.notifier.Notify(ctx, fmt.Sprintf("⚠️ Failed to create order %s: %v", externalID, err))
		return Result{}, fmt.Errorf("wallet order creation failed: %w", err)
	}
	metrics.Orders.WithLabelValues("created").Inc()

	order := &data.Order{
		ID:         created.ID,
		ExternalID: created.ExternalID,
		Login:      login,
		ServiceID:  created.ServiceID,
		Amount:     created.Amount,
		Status:     data.CreatedStatus,
		CreatedAt:  created.CreatedAt(),
	}
	if _, err := s.repository.InsertOrderIfAbsent(ctx, order); err != nil {
		if errors.Is(err, data.ErrUniqueConstraintViolation) {
			// Lost a race on external_id: a concurrent event got there first.
			s.logger.WarnCtx(ctx, "concurrent duplicate event detected",
				zap.String("externalID", externalID),
			)
			metrics.Orders.WithLabelValues("duplicate").Inc()
			return Result{OrderID: created.ID, AlreadyProcessed: true, Message: "already processed"}, nil
		}
		s.notifier.Notify(ctx, fmt.Sprintf("❌ Failed to record order %s: %v", created.ID, err))
		return Result{}, fmt.Errorf("failed to record order: %w", err)
	}

	if err := s.wallet.PayOrder(ctx, created.ID, created.ExternalID, created.CreatedDateTime); err != nil {
		// Partial success: the order stays created and is never retried here.
		// Remediation is a manual operation against the created rows.
		s.logger.WarnCtx(ctx, "order created but not paid",
			zap.String("orderID", created.ID),
			zap.Error(err),
		)
		s.notifier.Notify(ctx, fmt.Sprintf("⚠️ Failed to pay order %s: %v", created.ID, err))
		return Result{OrderID: created.ID, Paid: false, Message: "order created but not paid"}, nil
	}

	if err := s.repository.SetOrderStatus(ctx, created.ID, data.PaidStatus); err != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("❌ Order %s paid upstream but status update failed: %v", created.ID, err))
		return Result{}, fmt.Errorf("failed to mark order paid: %w", err)
	}
	metrics.Orders.WithLabelValues("paid").Inc()
	return Result{OrderID: created.ID, Paid: true}, nil
}

func alreadyProcessed(order *data.Order) Result {
	return Result{
		OrderID:          order.ID,
		AlreadyProcessed: true,
		Paid:             order.Status == data.PaidStatus,
		Message:          "already processed",
	}
}
