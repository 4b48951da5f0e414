package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any, logger *logging.ZapLogger) {
	res, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorCtx(ctx, "error marshalling response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(res); err != nil {
		logger.ErrorCtx(ctx, "error writing response", zap.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string, logger *logging.ZapLogger) {
	writeJSON(ctx, w, status, map[string]any{
		"ok":    false,
		"error": message,
	}, logger)
}
