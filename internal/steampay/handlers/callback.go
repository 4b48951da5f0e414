package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/marketplace"
	"github.com/M0R1S0N/steampay/internal/steampay/service"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type CallbackService interface {
	ProcessPaymentEvent(ctx context.Context, event service.PaymentEvent) (service.Result, error)
}

// CallbackHandler receives the marketplace payment notification. The code
// arrives as either unique_code or uniquecode, depending on the caller.
type CallbackHandler struct {
	service CallbackService
	logger  *logging.ZapLogger
}

func NewCallbackHandler(service CallbackService, logger *logging.ZapLogger) *CallbackHandler {
	return &CallbackHandler{
		service: service,
		logger:  logger,
	}
}

type callbackResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("unique_code")
	if code == "" {
		code = query.Get("uniquecode")
	}
	if code == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "unique code is required", h.logger)
		return
	}

	result, err := h.service.ProcessPaymentEvent(r.Context(), service.PaymentEvent{
		Code:  code,
		Login: query.Get("login"),
	})
	if err != nil {
		var upstreamErr *data.UpstreamError
		switch {
		case errors.Is(err, service.ErrCodeNotReady), errors.Is(err, marketplace.ErrCodeRejected):
			h.logger.DebugCtx(r.Context(), "payment event refused", zap.Error(err))
			writeError(r.Context(), w, http.StatusBadRequest, err.Error(), h.logger)
			return
		case errors.Is(err, marketplace.ErrNoToken), errors.As(err, &upstreamErr):
			h.logger.ErrorCtx(r.Context(), "upstream failure while processing payment event", zap.Error(err))
			writeError(r.Context(), w, http.StatusBadGateway, "upstream failure", h.logger)
			return
		default:
			h.logger.ErrorCtx(r.Context(), "failed to process payment event", zap.Error(err))
			writeError(r.Context(), w, http.StatusInternalServerError, "internal error", h.logger)
			return
		}
	}

	writeJSON(r.Context(), w, http.StatusOK, callbackResponse{
		OK:      true,
		Message: result.Message,
		OrderID: result.OrderID,
	}, h.logger)
}
