package httpapi

import (
	"net/http"
	"time"

	"surfsup/internal/config"
)

// NewServer wraps mux in the middleware chain: request IDs, request logging,
// metrics, CORS and, when RateLimitRPS is set, rate limiting.
func NewServer(cfg config.Config, mux *http.ServeMux, observer RequestObserver) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      buildHandler(cfg, mux, observer),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func buildHandler(cfg config.Config, mux *http.ServeMux, observer RequestObserver) http.Handler {
	var h http.Handler = mux
	if cfg.RateLimitRPS > 0 {
		h = rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, h)
	}
	h = corsHandler(cfg.CORSAllowedOrigins, h)
	if observer != nil {
		h = requestMetrics(observer, h)
	}
	return requestID(requestLogger(h))
}
