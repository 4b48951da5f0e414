package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/sign"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

var (
	ErrOrderRejected = errors.New("wallet rejected the order")
	ErrPayRejected   = errors.New("wallet rejected the payment")
)

const requestTimeout = 15 * time.Second

type Config struct {
	BaseURL string
	APIKey  string
}

// Client wraps the prepaid-wallet provider API. Every call is bounded by the
// client timeout; a non-2xx response surfaces as *data.UpstreamError.
type Client struct {
	http   *resty.Client
	logger *logging.ZapLogger
}

func New(cfg Config, logger *logging.ZapLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("pw-api-key", cfg.APIKey).
		SetTimeout(requestTimeout)
	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type balanceData struct {
	Balance string `json:"balance"`
}

// OrderData mirrors a wallet order as the provider returns it.
// CreatedDateTime is kept verbatim: the settlement token must be computed
// over the exact string the provider issued.
type OrderData struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"externalId"`
	ServiceID       string          `json:"serviceId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedDateTime string          `json:"createdDateTime"`
}

func (d *OrderData) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, d.CreatedDateTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Balance returns the wallet balance. A malformed response yields zero with a
// warning instead of an error, so the polling loop treats "unknown" as
// "depleted" rather than crashing.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/get-balance/")
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet balance request failed: %w", err)
	}
	if resp.IsError() {
		return decimal.Zero, &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		c.logger.WarnCtx(ctx, "failed to decode wallet balance response", zap.Error(err))
		return decimal.Zero, nil
	}
	var bal balanceData
	if err := json.Unmarshal(env.Data, &bal); err != nil {
		c.logger.WarnCtx(ctx, "failed to decode wallet balance payload", zap.Error(err))
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(bal.Balance)
	if err != nil {
		c.logger.WarnCtx(ctx, "failed to parse wallet balance", zap.String("balance", bal.Balance))
		return decimal.Zero, nil
	}
	return value, nil
}

type CreateOrderRequest struct {
	ExternalID string
	ServiceID  string
	Login      string
	Amount     decimal.Decimal
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderData, error) {
	payload := map[string]string{
		"externalId": req.ExternalID,
		"serviceId":  req.ServiceID,
		"amount":     req.Amount.StringFixed(2),
		"login":      req.Login,
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/create-order/")
	if err != nil {
		return nil, fmt.Errorf("wallet create-order request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("error unmarshalling create-order response: %w", err)
	}
	if env.Status != "success" || len(env.Data) == 0 {
		c.logger.WarnCtx(ctx, "wallet refused to create order",
			zap.String("externalID", req.ExternalID),
			zap.String("status", env.Status),
		)
		return nil, ErrOrderRejected
	}
	order := &OrderData{}
	if err := json.Unmarshal(env.Data, order); err != nil {
		return nil, fmt.Errorf("error unmarshalling created order: %w", err)
	}
	return order, nil
}

// PayOrder settles a previously created order using the one-time token bound
// to the order id and its creation timestamp.
func (c *Client) PayOrder(ctx context.Context, orderID, externalID, createdDateTime string) error {
	payload := map[string]string{
		"id":         orderID,
		"externalId": externalID,
		"token":      sign.PayToken(orderID, createdDateTime),
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/pay-order/")
	if err != nil {
		return fmt.Errorf("wallet pay-order request failed: %w", err)
	}
	if resp.IsError() {
		return &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("error unmarshalling pay-order response: %w", err)
	}
	if env.Status != "success" {
		c.logger.WarnCtx(ctx, "wallet refused to pay order",
			zap.String("orderID", orderID),
			zap.String("status", env.Status),
		)
		return ErrPayRejected
	}
	return nil
}
