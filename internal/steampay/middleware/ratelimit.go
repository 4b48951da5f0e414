package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/ratelimit"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type RateLimit struct {
	limiter *ratelimit.SlidingWindow
	action  string
	logger  *logging.ZapLogger
}

func NewRateLimit(limiter *ratelimit.SlidingWindow, action string, logger *logging.ZapLogger) *RateLimit {
	return &RateLimit{
		limiter: limiter,
		action:  action,
		logger:  logger,
	}
}

func (rl *RateLimit) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.limiter.Allow(key, rl.action) {
			rl.logger.WarnCtx(r.Context(), "request rate limited",
				zap.String("key", key),
				zap.String("action", rl.action),
			)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if rl.limiter.RiskScore(key) >= ratelimit.RiskHigh {
			rl.logger.WarnCtx(r.Context(), "high request volume from actor",
				zap.String("key", key),
			)
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
