package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/pulsewatch-prototype/internal/console/handler"
	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra/auth"
)

// Deps — все зависимости HTTP-слоя консоли.
type Deps struct {
	Monitoring *handler.Monitoring
	Auth       *handler.Auth
	Validator  auth.TokenValidator
	Recorder   RequestRecorder
	Archiver   RequestArchiver // nil, если архив выключен
	Logger     *zap.Logger
}

// pipeline — базовая цепочка middleware консоли в порядке применения
// (первый — самый внешний). recordRequests регистрируется РАНЬШЕ Recoverer
// и потому оборачивает его: паника хендлера превращается в 500 внутри
// записывающей обертки и попадает в буфер как обычный отказ.
func pipeline(rec RequestRecorder, arch RequestArchiver) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RealIP,
		TracingMiddleware,
		recordRequests(rec, arch),
		chimw.Recoverer,
	}
}

// New собирает HTTP-сервер консоли с полным пайплайном middleware.
func New(cfg infra.ServerConfig, d Deps) *http.Server {
	r := chi.NewRouter()

	r.Use(pipeline(d.Recorder, d.Archiver)...)

	// Публичные маршруты
	r.Post("/auth/token", d.Auth.Login)
	r.Get("/health", d.Monitoring.Health)

	r.Route("/api/v1/monitoring", func(r chi.Router) {
		r.Get("/health", d.Monitoring.Health)
		r.Get("/metrics/performance", d.Monitoring.Performance)
		r.Get("/metrics/requests", d.Monitoring.Requests)
		r.Get("/metrics/system", d.Monitoring.System)
		r.Get("/metrics/endpoints", d.Monitoring.Endpoints)
		r.Get("/metrics/errors", d.Monitoring.Errors)
		r.Get("/cache/stats", d.Monitoring.CacheStats)
		r.Get("/dashboard", d.Monitoring.Dashboard)

		// Административные операции: токен с нужным scope + rate limit
		r.Group(func(r chi.Router) {
			r.Use(auth.NewMiddleware(d.Validator, d.Logger))
			r.Use(auth.RequireScope(domain.ScopeMonitoringAdmin))
			r.Use(adminRateLimit(rate.NewLimiter(rate.Limit(1), 5), d.Logger))

			r.Get("/export", d.Monitoring.Export)
			r.Post("/cleanup", d.Monitoring.Cleanup)
			r.Post("/cache/clear", d.Monitoring.CacheClear)
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
