// Package api exposes the buyer service over JSON/HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/buyer-dedupe/internal/config"
	"github.com/sells-group/buyer-dedupe/internal/dedupe"
	"github.com/sells-group/buyer-dedupe/internal/model"
)

// Service is the subset of buyer.Service the handlers call.
type Service interface {
	Check(ctx context.Context, ownerID string, candidate model.Buyer, ignored []string) (dedupe.Result, error)
	Create(ctx context.Context, ownerID string, candidate model.Buyer, force bool) (*model.Buyer, dedupe.Result, error)
	Merge(ctx context.Context, ownerID, primaryID, secondaryID string, choices dedupe.MergeChoices) (*model.Buyer, error)
	Scan(ctx context.Context, ownerID string) ([]dedupe.Cluster, error)
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc Service, cfg config.ServerConfig) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(rateLimit(cfg.RateLimit, cfg.RateBurst))
	}

	r.Get("/health", h.health)
	r.Route("/v1/owners/{ownerID}/buyers", func(r chi.Router) {
		r.Post("/", h.create)
		r.Post("/check", h.check)
		r.Post("/merge", h.merge)
		r.Get("/duplicates", h.duplicates)
	})

	return r
}

// rateLimit rejects requests beyond a shared token bucket with 429.
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
