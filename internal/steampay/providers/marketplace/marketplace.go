package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/sign"
	"github.com/M0R1S0N/steampay/pkg/logging"
	"github.com/M0R1S0N/steampay/pkg/threadsafe"
)

var (
	ErrNoToken      = errors.New("marketplace token unavailable")
	ErrCodeRejected = errors.New("marketplace rejected the unique code")
)

const (
	requestTimeout = 15 * time.Second
	tokenLifetime  = 110 * time.Minute
)

// Purchase states in which the unique code may be delivered.
const (
	StateDeliverable = 2
	StateConfirmed   = 5
)

type Config struct {
	BaseURL  string
	SellerID int64
	APIKey   string
}

// Client wraps the marketplace gateway. The bearer token is cached for its
// lifetime and refreshed lazily; the cache is advisory, so concurrent callers
// hitting an expired token may each perform a refresh, which is harmless.
type Client struct {
	http   *resty.Client
	cfg    Config
	token  *threadsafe.Expiring[string]
	logger *logging.ZapLogger
}

func New(cfg Config, logger *logging.ZapLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(requestTimeout)
	return &Client{
		http:   httpClient,
		cfg:    cfg,
		token:  threadsafe.NewExpiring[string](),
		logger: logger,
	}
}

type loginResponse struct {
	Retval int    `json:"retval"`
	Token  string `json:"token"`
}

// Token returns a bearer token, exchanging credentials only when the cached
// one has lapsed.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.token.Get(); ok {
		return token, nil
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	payload := map[string]any{
		"seller_id": c.cfg.SellerID,
		"timestamp": ts,
		"sign":      sign.LoginSign(c.cfg.APIKey, ts),
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/apilogin")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %w", ErrNoToken,
			&data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())})
	}
	var parsed loginResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("%w: error unmarshalling apilogin response: %w", ErrNoToken, err)
	}
	if parsed.Retval != 0 || parsed.Token == "" {
		return "", fmt.Errorf("%w: retval=%d", ErrNoToken, parsed.Retval)
	}
	c.token.Set(parsed.Token, tokenLifetime)
	return parsed.Token, nil
}

type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Purchase struct {
	Amount   decimal.Decimal
	Currency string
	State    int
	Options  []Option
}

func (p *Purchase) Ready() bool {
	return p.State == StateDeliverable || p.State == StateConfirmed
}

// FallbackLogin returns the first purchase option value, used when the
// callback does not carry an explicit login.
func (p *Purchase) FallbackLogin() string {
	if len(p.Options) > 0 && p.Options[0].Value != "" {
		return p.Options[0].Value
	}
	return "unknown"
}

type uniqueCodeResponse struct {
	Retval          int             `json:"retval"`
	Amount          decimal.Decimal `json:"amount"`
	TypeCurr        string          `json:"type_curr"`
	Options         []Option        `json:"options"`
	UniqueCodeState struct {
		State int `json:"state"`
	} `json:"unique_code_state"`
}

// UniqueCode verifies a buyer's unique purchase code and returns the purchase
// it identifies. A non-zero retval means the marketplace does not recognize
// the code as payable.
func (c *Client) UniqueCode(ctx context.Context, code string) (*Purchase, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("code", code).
		SetQueryParam("token", token).
		Get("/api/purchases/unique-code/{code}")
	if err != nil {
		return nil, fmt.Errorf("unique-code request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &data.UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var parsed uniqueCodeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling unique-code response: %w", err)
	}
	if parsed.Retval != 0 {
		c.logger.DebugCtx(ctx, "marketplace rejected unique code",
			zap.String("code", code),
			zap.Int("retval", parsed.Retval),
		)
		return nil, fmt.Errorf("%w: retval=%d", ErrCodeRejected, parsed.Retval)
	}
	currency := strings.ToUpper(parsed.TypeCurr)
	if currency == "" {
		currency = "USD"
	}
	return &Purchase{
		Amount:   parsed.Amount,
		Currency: currency,
		State:    parsed.UniqueCodeState.State,
		Options:  parsed.Options,
	}, nil
}
