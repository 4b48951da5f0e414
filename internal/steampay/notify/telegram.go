package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

const (
	requestTimeout = 10 * time.Second
	apiBaseURL     = "https://api.telegram.org"
)

type Config struct {
	BaseURL  string
	BotToken string
	ChatID   string
}

// Telegram delivers best-effort alerts. Notify never fails its caller: a
// delivery problem is logged and dropped, and an unconfigured notifier is a
// silent no-op.
type Telegram struct {
	http    *resty.Client
	cfg     Config
	logger  *logging.ZapLogger
	enabled bool
}

func New(cfg Config, logger *logging.ZapLogger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = apiBaseURL
	}
	return &Telegram{
		http:    resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(requestTimeout),
		cfg:     cfg,
		logger:  logger,
		enabled: cfg.BotToken != "" && cfg.ChatID != "",
	}
}

func (t *Telegram) Notify(ctx context.Context, text string) {
	if !t.enabled {
		return
	}
	payload := map[string]any{
		"chat_id":                  t.cfg.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	resp, err := t.http.R().
		SetContext(ctx).
		SetPathParam("token", t.cfg.BotToken).
		SetBody(payload).
		Post("/bot{token}/sendMessage")
	if err != nil {
		t.logger.WarnCtx(ctx, "telegram notify failed", zap.Error(err))
		return
	}
	if resp.IsError() {
		t.logger.WarnCtx(ctx, "telegram notify rejected", zap.Int("status", resp.StatusCode()))
	}
}
