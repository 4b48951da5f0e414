package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type OrderFindingRepository interface {
	GetOrderByExternalID(ctx context.Context, externalID string) (*data.Order, error)
	GetOrderByID(ctx context.Context, id string) (*data.Order, error)
}

type OrderFindingHandler struct {
	repository OrderFindingRepository
	logger     *logging.ZapLogger
}

func NewOrderFindingHandler(repository OrderFindingRepository, logger *logging.ZapLogger) *OrderFindingHandler {
	return &OrderFindingHandler{
		repository: repository,
		logger:     logger,
	}
}

type orderResponse struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Login      string    `json:"login"`
	ServiceID  string    `json:"service_id"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_datetime"`
}

func orderToResponse(order *data.Order) orderResponse {
	return orderResponse{
		ID:         order.ID,
		ExternalID: order.ExternalID,
		Login:      order.Login,
		ServiceID:  order.ServiceID,
		Amount:     order.Amount.StringFixed(2),
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt,
	}
}

func (h *OrderFindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	externalID := r.URL.Query().Get("external_id")
	if externalID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "external_id is required", h.logger)
		return
	}

	order, err := h.repository.GetOrderByExternalID(r.Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrOrderNotFound):
			writeError(r.Context(), w, http.StatusNotFound, "order not found", h.logger)
			return
		default:
			h.logger.ErrorCtx(r.Context(), "failed to find order", zap.Error(err))
			writeError(r.Context(), w, http.StatusInternalServerError, "internal error", h.logger)
			return
		}
	}

	writeJSON(r.Context(), w, http.StatusOK, orderToResponse(order), h.logger)
}

// ByID serves lookups keyed by the wallet-assigned order id.
func (h *OrderFindingHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.repository.GetOrderByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrOrderNotFound):
			writeError(r.Context(), w, http.StatusNotFound, "order not found", h.logger)
			return
		default:
			h.logger.ErrorCtx(r.Context(), "failed to find order", zap.Error(err))
			writeError(r.Context(), w, http.StatusInternalServerError, "internal error", h.logger)
			return
		}
	}

	writeJSON(r.Context(), w, http.StatusOK, orderToResponse(order), h.logger)
}
