package monitor

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// Thresholds — пороги деградации. Задаются один раз при старте из конфига,
// в рантайме не меняются.
type Thresholds struct {
	ResponseTimeWarning  float64 `mapstructure:"response_time_warning"`  // секунды
	ResponseTimeCritical float64 `mapstructure:"response_time_critical"` // секунды
	CPUWarning           float64 `mapstructure:"cpu_warning"`            // проценты
	CPUCritical          float64 `mapstructure:"cpu_critical"`           // проценты
	MemoryWarning        float64 `mapstructure:"memory_warning"`         // проценты
	MemoryCritical       float64 `mapstructure:"memory_critical"`        // проценты
	ErrorRateWarning     float64 `mapstructure:"error_rate_warning"`     // доля [0,1]
	ErrorRateCritical    float64 `mapstructure:"error_rate_critical"`    // доля [0,1]
}

// DefaultThresholds — значения, под которые откалиброваны существующие дашборды.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTimeWarning:  2.0,
		ResponseTimeCritical: 5.0,
		CPUWarning:           70.0,
		CPUCritical:          90.0,
		MemoryWarning:        80.0,
		MemoryCritical:       95.0,
		ErrorRateWarning:     0.05,
		ErrorRateCritical:    0.10,
	}
}

const (
	DefaultRequestCapacity = 1000 // последние 1000 запросов
	DefaultSystemCapacity  = 100  // последние 100 системных снимков
)

// Config задает емкости буферов и пороги коллектора.
type Config struct {
	RequestCapacity int        `mapstructure:"request_capacity"`
	SystemCapacity  int        `mapstructure:"system_capacity"`
	Thresholds      Thresholds `mapstructure:"thresholds"`
}

// endpointCounters — накопительные счетчики одного эндпоинта.
// Живут все время жизни процесса, емкостью не вытесняются.
type endpointCounters struct {
	total     int64
	success   int64
	failed    int64
	totalTime float64
}

// Collector — ядро движка наблюдаемости: принимает сэмплы запросов и
// системные снимки, ведет счетчики по эндпоинтам и кодам ошибок.
// Владеет обоими кольцевыми буферами. Один экземпляр на процесс,
// создается в main и передается потребителям явно (никаких глобалов).
type Collector struct {
	requests *BoundedSeries[domain.RequestSample]
	system   *BoundedSeries[domain.SystemSample]

	// Один мьютекс на счетчики: семплинг редкий (30с), контеншен приемлем
	mu        sync.RWMutex
	endpoints map[domain.EndpointKey]*endpointCounters
	errTally  map[int]int64

	thresholds Thresholds
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
}

func NewCollector(cfg Config, logger *zap.Logger, metrics *Metrics) *Collector {
	if cfg.RequestCapacity <= 0 {
		cfg.RequestCapacity = DefaultRequestCapacity
	}
	if cfg.SystemCapacity <= 0 {
		cfg.SystemCapacity = DefaultSystemCapacity
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Collector{
		requests:   NewBoundedSeries[domain.RequestSample](cfg.RequestCapacity),
		system:     NewBoundedSeries[domain.SystemSample](cfg.SystemCapacity),
		endpoints:  make(map[domain.EndpointKey]*endpointCounters),
		errTally:   make(map[int]int64),
		thresholds: cfg.Thresholds,
		logger:     logger.Named("collector"),
		metrics:    metrics,
		now:        time.Now,
	}
}

// RecordRequest принимает один сэмпл завершенного запроса. Контракт: никогда
// не возвращает ошибку и не паникует — прием метрик не имеет права ронять
// обслуживаемую систему. Обновления буфера, счетчиков эндпоинта и тотала
// ошибок независимы: сбой одного не отменяет остальные.
func (c *Collector) RecordRequest(sample domain.RequestSample) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("request ingestion recovered", zap.Any("panic", r))
		}
	}()

	if sample.Timestamp.IsZero() {
		sample.Timestamp = c.now().UTC()
	}

	key := domain.EndpointKey{Method: sample.Method, Path: sample.Endpoint}

	// 1. Буфер запросов
	c.requests.Append(sample)
	c.metrics.SeriesFill.WithLabelValues("requests").Set(float64(c.requests.Len()))

	// 2. Счетчики эндпоинта
	c.mu.Lock()
	st := c.endpoints[key]
	if st == nil {
		st = &endpointCounters{}
		c.endpoints[key] = st
	}
	st.total++
	st.totalTime += sample.ResponseTime
	if sample.StatusCode >= 200 && sample.StatusCode < 400 {
		st.success++
	} else {
		st.failed++
	}

	// 3. Тотал ошибок по коду (только 4xx/5xx)
	if sample.StatusCode >= 400 {
		c.errTally[sample.StatusCode]++
	}
	c.mu.Unlock()

	status := strconv.Itoa(sample.StatusCode)
	c.metrics.TotalRequests.WithLabelValues(sample.Method, sample.Endpoint).Inc()
	c.metrics.RequestDuration.WithLabelValues(sample.Method, sample.Endpoint, status).Observe(sample.ResponseTime)

	if sample.ResponseTime > c.thresholds.ResponseTimeWarning {
		c.logger.Warn("slow request",
			zap.String("endpoint", key.String()),
			zap.Float64("response_time", sample.ResponseTime),
		)
	}

	if sample.StatusCode >= 400 {
		c.metrics.ErrorTotal.WithLabelValues(status).Inc()
		fields := []zap.Field{
			zap.String("endpoint", key.String()),
			zap.Int("status", sample.StatusCode),
		}
		if sample.ErrorMessage != "" {
			fields = append(fields, zap.String("error", sample.ErrorMessage))
		}
		c.logger.Error("request error", fields...)
	}
}

// RecordSystem принимает один системный снимок от семплера.
func (c *Collector) RecordSystem(sample domain.SystemSample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = c.now().UTC()
	}
	c.system.Append(sample)
	c.metrics.SeriesFill.WithLabelValues("system").Set(float64(c.system.Len()))

	if sample.CPUPercent > c.thresholds.CPUWarning {
		c.logger.Warn("high CPU usage", zap.Float64("cpu_percent", sample.CPUPercent))
	}
	if sample.MemoryPercent > c.thresholds.MemoryWarning {
		c.logger.Warn("high memory usage", zap.Float64("memory_percent", sample.MemoryPercent))
	}
}

// ActiveConnections — текущая занятость буфера запросов. Это прокси-сигнал
// для поля active_connections системного снимка, не реальное число соединений.
func (c *Collector) ActiveConnections() int {
	return c.requests.Len()
}

// EndpointStatistics возвращает копию счетчиков по всем эндпоинтам.
// Ключ — строка "METHOD path" (формат закреплен за внешними дашбордами).
func (c *Collector) EndpointStatistics() map[string]domain.EndpointStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.EndpointStats, len(c.endpoints))
	for key, st := range c.endpoints {
		stats := domain.EndpointStats{
			TotalRequests:      st.total,
			SuccessfulRequests: st.success,
			FailedRequests:     st.failed,
			TotalResponseTime:  st.totalTime,
		}
		if st.total > 0 {
			stats.AvgResponseTime = st.totalTime / float64(st.total)
		}
		out[key.String()] = stats
	}
	return out
}
