package domain

import (
	"fmt"
	"time"
)

// RequestSample — неизменяемая запись об одном завершенном HTTP-запросе.
// Заполняется целиком на стороне HTTP-слоя, после приема принадлежит буферу.
type RequestSample struct {
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"status_code"`
	ResponseTime float64   `json:"response_time"` // секунды
	Timestamp    time.Time `json:"timestamp"`     // всегда UTC
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	FileSize     *int64    `json:"file_size,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// SystemSample — один периодический снимок ресурсов процесса/хоста.
type SystemSample struct {
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	DiskUsagePercent float64 `json:"disk_usage_percent"`

	// ActiveConnections — это длина буфера запросов на момент снятия,
	// прокси-сигнал, а не реальное число соединений.
	ActiveConnections int       `json:"active_connections"`
	Timestamp         time.Time `json:"timestamp"`
}

// EndpointKey — типизированный составной ключ "метод + путь".
// Наружу всегда уходит строковый формат "METHOD path" (совместимость с дашбордами).
type EndpointKey struct {
	Method string
	Path   string
}

func (k EndpointKey) String() string {
	return fmt.Sprintf("%s %s", k.Method, k.Path)
}

// EndpointStats — накопительные счетчики по одному эндпоинту.
// Инвариант: Successful + Failed == Total, Avg == TotalTime / Total.
type EndpointStats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	AvgResponseTime    float64 `json:"avg_response_time"`
	TotalResponseTime  float64 `json:"total_response_time"`
}

// ResponseTimeStats — сводка времен ответа по текущему окну буфера.
type ResponseTimeStats struct {
	Average float64 `json:"average"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// SystemStats — поля последнего системного снимка (нули, если снимков еще нет).
type SystemStats struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	DiskUsagePercent  float64 `json:"disk_usage_percent"`
	ActiveConnections int     `json:"active_connections"`
}

// RequestStats — счетчики трафика.
type RequestStats struct {
	TotalRequests     int     `json:"total_requests"`
	RequestsPerMinute float64 `json:"requests_per_minute"` // запросы за последние 60с
	UniqueEndpoints   int     `json:"unique_endpoints"`
}

// PerformanceSummary — точка-во-времени сводка производительности.
type PerformanceSummary struct {
	ResponseTime ResponseTimeStats `json:"response_time"`
	System       SystemStats       `json:"system"`
	Requests     RequestStats      `json:"requests"`
}

// ErrorStats — агрегированная статистика отказов.
type ErrorStats struct {
	TotalRequests  int64            `json:"total_requests"`
	TotalErrors    int64            `json:"total_errors"`
	ErrorRate      float64          `json:"error_rate"` // всегда в [0,1]
	ErrorBreakdown map[int]int64    `json:"error_breakdown"`
	EndpointErrors map[string]int64 `json:"endpoint_errors"`
}

// Трехуровневый вердикт здоровья. Порядок серьезности: healthy < warning < critical.
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// HealthReport — итог применения пороговых правил к текущим сводкам.
type HealthReport struct {
	Status         string             `json:"status"`
	Timestamp      time.Time          `json:"timestamp"`
	Warnings       []string           `json:"warnings"`
	CriticalIssues []string           `json:"critical_issues"`
	Performance    PerformanceSummary `json:"performance"`
	ErrorStats     ErrorStats         `json:"error_stats"`
}

// CacheStats — состояние кэш-сервиса для мониторингового API.
type CacheStats struct {
	Enabled bool  `json:"enabled"`
	Keys    int64 `json:"keys"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Errors  int64 `json:"errors"`
}
