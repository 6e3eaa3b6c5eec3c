package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/cache"
	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra"
	"github.com/xela07ax/pulsewatch-prototype/internal/monitor"
)

// MetricsProvider — всё, что консоли нужно от движка телеметрии.
// Интерфейс объявлен на стороне потребителя, реализует его monitor.Collector.
type MetricsProvider interface {
	HealthStatus() domain.HealthReport
	PerformanceSummary() domain.PerformanceSummary
	ErrorStatistics() domain.ErrorStats
	EndpointStatistics() map[string]domain.EndpointStats
	RequestWindow(hours int) ([]domain.RequestSample, error)
	SystemWindow(hours int) ([]domain.SystemSample, error)
	Export(format string) (string, error)
	Prune(days int) error
}

// Monitoring обслуживает HTTP-срез движка телеметрии.
type Monitoring struct {
	provider MetricsProvider
	cache    *cache.Service
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewMonitoring(provider MetricsProvider, cacheSvc *cache.Service, cacheTTL time.Duration, logger *zap.Logger) *Monitoring {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Monitoring{
		provider: provider,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
		logger:   logger.Named("monitoring"),
	}
}

// Health отдает текущий вердикт здоровья сервиса.
// Статус HTTP всегда 200: деградация — это данные, а не ошибка транспорта.
func (h *Monitoring) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.provider.HealthStatus())
}

// Performance отдает сводку производительности. Ответ дорогой (сортировка
// всего буфера), поэтому кэшируем его в Redis на короткий TTL.
func (h *Monitoring) Performance(w http.ResponseWriter, r *http.Request) {
	cacheKey := infra.GetCacheKey("performance_summary")

	if cached, ok := h.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	summary := h.provider.PerformanceSummary()

	if body, err := json.Marshal(summary); err == nil {
		h.cache.Set(r.Context(), cacheKey, body, h.cacheTTL)
	}
	respondJSON(w, h.logger, http.StatusOK, summary)
}

// Requests отдает сырые сэмплы запросов за последние N часов (1..168).
func (h *Monitoring) Requests(w http.ResponseWriter, r *http.Request) {
	hours := parseHours(r, 1)

	samples, err := h.provider.RequestWindow(hours)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"hours":          hours,
		"total_requests": len(samples),
		"metrics":        samples,
	})
}

// System отдает системные снимки за последние N часов (1..168).
func (h *Monitoring) System(w http.ResponseWriter, r *http.Request) {
	hours := parseHours(r, 1)

	samples, err := h.provider.SystemWindow(hours)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"hours":           hours,
		"total_snapshots": len(samples),
		"metrics":         samples,
	})
}

// Endpoints отдает накопительную статистику по каждому эндпоинту.
func (h *Monitoring) Endpoints(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.provider.EndpointStatistics())
}

// Errors отдает сводку отказов.
func (h *Monitoring) Errors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.provider.ErrorStatistics())
}

// CacheStats отдает состояние кэш-сервиса.
func (h *Monitoring) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.cache.Stats(r.Context()))
}

// Dashboard собирает составной ответ для панели оператора за один запрос.
// Имена ключей закреплены за существующими дашбордами.
func (h *Monitoring) Dashboard(w http.ResponseWriter, r *http.Request) {
	health := h.provider.HealthStatus()

	// Окно в один час всегда валидно, ошибок здесь не бывает
	recentRequests, _ := h.provider.RequestWindow(1)
	recentSystem, _ := h.provider.SystemWindow(1)

	var latestSystem interface{}
	if n := len(recentSystem); n > 0 {
		latestSystem = recentSystem[n-1]
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"timestamp":   health.Timestamp,
		"health":      health,
		"performance": h.provider.PerformanceSummary(),
		"errors":      h.provider.ErrorStatistics(),
		"cache":       h.cache.Stats(r.Context()),
		"recent_activity": map[string]interface{}{
			"requests_last_hour": len(recentRequests),
			"system_snapshots":   len(recentSystem),
			"latest_system":      latestSystem,
		},
	})
}

// Export отдает полный слепок метрик в запрошенном формате (admin only).
func (h *Monitoring) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	data, err := h.provider.Export(format)
	if err != nil {
		if errors.Is(err, monitor.ErrUnsupportedFormat) {
			respondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("export failed", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "export failed")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"format": format,
		"data":   data,
	})
}

// Cleanup сбрасывает сэмплы старше N дней (1..30, admin only).
func (h *Monitoring) Cleanup(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}

	if err := h.provider.Prune(days); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message": "Old metrics cleared",
		"days":    days,
	})
}

// CacheClear вычищает все ключи сервиса из Redis (admin only).
func (h *Monitoring) CacheClear(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.ClearPattern(r.Context(), infra.RedisPatternCacheWildcard)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":      "Cache cleared",
		"keys_removed": removed,
	})
}

// parseHours достает ?hours= из запроса; нечисловое значение отдаем как есть,
// чтобы движок вернул свою ошибку контракта (окно валидируется там).
func parseHours(r *http.Request, def int) int {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return parsed
}
