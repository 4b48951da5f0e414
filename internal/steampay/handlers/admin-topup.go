package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/service"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type AdminTopupService interface {
	ProcessAdminTopup(ctx context.Context, login string, amount decimal.Decimal) (service.AdminResult, error)
}

type AdminTopupHandler struct {
	service AdminTopupService
	secret  string
	logger  *logging.ZapLogger
}

func NewAdminTopupHandler(service AdminTopupService, secret string, logger *logging.ZapLogger) *AdminTopupHandler {
	return &AdminTopupHandler{
		service: service,
		secret:  secret,
		logger:  logger,
	}
}

type adminTopupResponse struct {
	OK      bool   `json:"ok"`
	OrderID string `json:"order_id,omitempty"`
	Paid    bool   `json:"paid"`
}

func (h *AdminTopupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !h.authorized(query.Get("secret")) {
		h.logger.WarnCtx(r.Context(), "admin secret mismatch")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	login := query.Get("login")
	if login == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "login is required", h.logger)
		return
	}
	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil || !amount.IsPositive() {
		writeError(r.Context(), w, http.StatusBadRequest, "amount must be a positive number", h.logger)
		return
	}

	result, err := h.service.ProcessAdminTopup(r.Context(), login, amount)
	if err != nil {
		var upstreamErr *data.UpstreamError
		switch {
		case errors.As(err, &upstreamErr):
			h.logger.ErrorCtx(r.Context(), "upstream failure during admin topup", zap.Error(err))
			writeError(r.Context(), w, http.StatusBadGateway, "upstream failure", h.logger)
			return
		default:
			h.logger.ErrorCtx(r.Context(), "admin topup failed", zap.Error(err))
			writeError(r.Context(), w, http.StatusInternalServerError, "internal error", h.logger)
			return
		}
	}

	writeJSON(r.Context(), w, http.StatusOK, adminTopupResponse{
		OK:      result.OK,
		OrderID: result.OrderID,
		Paid:    result.Paid,
	}, h.logger)
}

// An empty configured secret disables the admin surface entirely.
func (h *AdminTopupHandler) authorized(secret string) bool {
	if h.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) == 1
}
