package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/marketplace"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/wallet"
)

type WalletGateway interface {
	CreateOrder(ctx context.Context, req wallet.CreateOrderRequest) (*wallet.OrderData, error)
	PayOrder(ctx context.Context, orderID, externalID, createdDateTime string) error
}

type MarketplaceGateway interface {
	UniqueCode(ctx context.Context, code string) (*marketplace.Purchase, error)
}

type RateSource interface {
	USDRate(ctx context.Context, currency string) decimal.Decimal
}

type OrderRepository interface {
	InsertOrderIfAbsent(ctx context.Context, order *data.Order) (inserted bool, err error)
	SetOrderStatus(ctx context.Context, id string, status data.Status) error
	GetOrderByExternalID(ctx context.Context, externalID string) (*data.Order, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string)
}
