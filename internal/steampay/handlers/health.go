package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
	logger *logging.ZapLogger
}

func NewHealthHandler(pinger Pinger, logger *logging.ZapLogger) *HealthHandler {
	return &HealthHandler{
		pinger: pinger,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.ErrorCtx(r.Context(), "health check failed", zap.Error(err))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(r.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, h.logger)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
