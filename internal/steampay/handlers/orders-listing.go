package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type OrdersListingRepository interface {
	GetOrders(ctx context.Context, offset, limit int) ([]data.Order, error)
}

type OrdersListingHandler struct {
	repository OrdersListingRepository
	secret     string
	logger     *logging.ZapLogger
}

func NewOrdersListingHandler(repository OrdersListingRepository, secret string, logger *logging.ZapLogger) *OrdersListingHandler {
	return &OrdersListingHandler{
		repository: repository,
		secret:     secret,
		logger:     logger,
	}
}

func (h *OrdersListingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(query.Get("secret")), []byte(h.secret)) != 1 {
		h.logger.WarnCtx(r.Context(), "admin secret mismatch")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	offset := parseBounded(query.Get("offset"), 0, 0, int(^uint(0)>>1))
	limit := parseBounded(query.Get("limit"), defaultListLimit, 1, maxListLimit)

	orders, err := h.repository.GetOrders(r.Context(), offset, limit)
	if err != nil {
		h.logger.ErrorCtx(r.Context(), "failed to list orders", zap.Error(err))
		writeError(r.Context(), w, http.StatusInternalServerError, "internal error", h.logger)
		return
	}

	response := make([]orderResponse, len(orders))
	for i := range orders {
		response[i] = orderToResponse(&orders[i])
	}
	writeJSON(r.Context(), w, http.StatusOK, response, h.logger)
}

func parseBounded(raw string, fallback, minValue, maxValue int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < minValue {
		return fallback
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
