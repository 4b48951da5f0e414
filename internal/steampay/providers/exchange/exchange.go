package exchange

import (
	"context"
	"encoding/json"
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

const (
	requestTimeout = 20 * time.Second

	balanceQuery = "accountType=UNIFIED"
	coinUSDT     = "USDT"
)

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	UID       string
}

// Client wraps the treasury exchange v5 API. Requests are signed per call;
// the signed payload and the transmitted payload are always the same bytes.
type Client struct {
	http   *resty.Client
	signer *sign.ExchangeSigner
	uid    string
	logger *logging.ZapLogger
}

func New(cfg Config, logger *logging.ZapLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(requestTimeout)
	return &Client{
		http:   httpClient,
		signer: sign.NewExchangeSigner(cfg.APIKey, cfg.APISecret),
		uid:    cfg.UID,
		logger: logger,
	}
}

type balanceResponse struct {
	Result struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
			} `json:"coin"`
		} `json:"list"`
	} `json:"result"`
}

// Balance returns the unified-account USDT balance. Parse failures yield zero
// with a warning so the topup loop never dies on a malformed response.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.signer.QueryHeaders(balanceQuery)).
		SetQueryString(balanceQuery).
		Get("/v5/account/wallet-balance")
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange balance request failed: %w", err)
	}
	if resp.IsError() {
		return decimal.Zero, &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var parsed balanceResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		c.logger.WarnCtx(ctx, "failed to decode exchange balance response", zap.Error(err))
		return decimal.Zero, nil
	}
	for _, account := range parsed.Result.List {
		for _, coin := range account.Coin {
			if coin.Coin != coinUSDT {
				continue
			}
			value, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				c.logger.WarnCtx(ctx, "failed to parse exchange balance",
					zap.String("walletBalance", coin.WalletBalance),
				)
				return decimal.Zero, nil
			}
			return value, nil
		}
	}
	c.logger.WarnCtx(ctx, "no USDT coin in exchange balance response")
	return decimal.Zero, nil
}

type transferRequest struct {
	TransferType int    `json:"transferType"`
	Coin         string `json:"coin"`
	Amount       string `json:"amount"`
	ToUserID     string `json:"toUserId"`
}

type TransferResult struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
}

// Transfer moves USDT to the configured destination UID. The movement is a
// single atomic call; its success or failure is the only observable state.
func (c *Client) Transfer(ctx context.Context, amount decimal.Decimal) (TransferResult, error) {
	body, err := json.Marshal(transferRequest{
		TransferType: 2,
		Coin:         coinUSDT,
		Amount:       amount.String(),
		ToUserID:     c.uid,
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("failed to encode transfer request: %w", err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.signer.BodyHeaders(body)).
		SetBody(body).
		Post("/v5/asset/transfer/inter-transfer")
	if err != nil {
		return TransferResult{}, fmt.Errorf("exchange transfer request failed: %w", err)
	}
	if resp.IsError() {
		return TransferResult{}, &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var result TransferResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return TransferResult{}, fmt.Errorf("error unmarshalling transfer response: %w", err)
	}
	if result.RetCode != 0 {
		return result, fmt.Errorf("exchange transfer rejected: retCode=%d retMsg=%q", result.RetCode, result.RetMsg)
	}
	return result, nil
}
