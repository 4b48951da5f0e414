package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

type BalanceGettingService interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// BalanceGettingHandler proxies the wallet balance for quick checks from a
// browser.
type BalanceGettingHandler struct {
	service BalanceGettingService
	logger  *logging.ZapLogger
}

func NewBalanceGettingHandler(service BalanceGettingService, logger *logging.ZapLogger) *BalanceGettingHandler {
	return &BalanceGettingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *BalanceGettingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to get wallet balance", zap.Error(err))
		writeError(r.Context(), w, http.StatusBadGateway, "upstream failure", h.logger)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"ok":      true,
		"balance": balance.StringFixed(2),
	}, h.logger)
}
