package rates

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

const requestTimeout = 10 * time.Second

const baseCurrency = "USD"

type Config struct {
	BaseURL string
}

// Client looks up conversion rates into USD. It never returns an error:
// the base currency short-circuits to 1.0 without a network call, and any
// fetch or parse failure falls back to 1.0 with a warning. The fail-open
// fallback is a deliberate, documented pricing risk.
type Client struct {
	http   *resty.Client
	logger *logging.ZapLogger
}

func New(cfg Config, logger *logging.ZapLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(requestTimeout)
	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

type ratesResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (c *Client) USDRate(ctx context.Context, currency string) decimal.Decimal {
	currency = strings.ToUpper(currency)
	if currency == baseCurrency {
		return decimal.NewFromInt(1)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("from", currency).
		SetQueryParam("to", baseCurrency).
		Get("/latest")
	if err != nil || resp.IsError() {
		c.logger.WarnCtx(ctx, "rate lookup failed, falling back to 1.0",
			zap.String("currency", currency),
			zap.Error(err),
			zap.Int("status", resp.StatusCode()),
		)
		return decimal.NewFromInt(1)
	}
	var parsed ratesResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		c.logger.WarnCtx(ctx, "failed to decode rate response, falling back to 1.0",
			zap.String("currency", currency),
			zap.Error(err),
		)
		return decimal.NewFromInt(1)
	}
	rate, ok := parsed.Rates[baseCurrency]
	if !ok || rate.IsZero() {
		c.logger.WarnCtx(ctx, "rate response missing USD, falling back to 1.0",
			zap.String("currency", currency),
		)
		return decimal.NewFromInt(1)
	}
	return rate
}
