package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// exportDocument — составной снимок состояния движка для выгрузки.
// Набор и имена ключей закреплены за внешними потребителями.
type exportDocument struct {
	Timestamp          time.Time                       `json:"timestamp"`
	PerformanceSummary domain.PerformanceSummary       `json:"performance_summary"`
	EndpointStatistics map[string]domain.EndpointStats `json:"endpoint_statistics"`
	ErrorStatistics    domain.ErrorStats               `json:"error_statistics"`
	HealthStatus       domain.HealthReport             `json:"health_status"`
	RecentRequests     []domain.RequestSample          `json:"recent_requests"`
	SystemMetrics      []domain.SystemSample           `json:"system_metrics"`
}

// Export сериализует составной снимок. Поддерживается только "json"
// (без учета регистра); любой другой формат — ошибка, а не молчаливый
// фолбэк.
func (c *Collector) Export(format string) (string, error) {
	if strings.ToLower(format) != "json" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	recentRequests, err := c.RequestWindow(1)
	if err != nil {
		return "", err
	}
	recentSystem, err := c.SystemWindow(1)
	if err != nil {
		return "", err
	}

	doc := exportDocument{
		Timestamp:          c.now().UTC(),
		PerformanceSummary: c.PerformanceSummary(),
		EndpointStatistics: c.EndpointStatistics(),
		ErrorStatistics:    c.ErrorStatistics(),
		HealthStatus:       c.HealthStatus(),
		RecentRequests:     recentRequests,
		SystemMetrics:      recentSystem,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export document: %w", err)
	}
	return string(data), nil
}

// Prune удаляет из обоих буферов сэмплы старше days суток, сохраняя порядок
// и емкости. Счетчики эндпоинтов и тотал ошибок не затрагиваются — это
// счетчики за все время жизни процесса, ретеншен к ним не применяется.
func (c *Collector) Prune(days int) error {
	if days < MinRetentionDays || days > MaxRetentionDays {
		return fmt.Errorf("%w: got %d", ErrInvalidRetention, days)
	}

	cutoff := c.now().Add(-time.Duration(days) * 24 * time.Hour)
	keepRequest := func(s domain.RequestSample) bool { return !s.Timestamp.Before(cutoff) }
	keepSystem := func(s domain.SystemSample) bool { return !s.Timestamp.Before(cutoff) }

	removedRequests := c.requests.Prune(keepRequest)
	removedSystem := c.system.Prune(keepSystem)

	c.metrics.SeriesFill.WithLabelValues("requests").Set(float64(c.requests.Len()))
	c.metrics.SeriesFill.WithLabelValues("system").Set(float64(c.system.Len()))

	c.logger.Info("cleared old metrics",
		zap.Int("days", days),
		zap.Int("removed_requests", removedRequests),
		zap.Int("removed_system", removedSystem),
	)
	return nil
}
