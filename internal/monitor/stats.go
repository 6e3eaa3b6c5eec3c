package monitor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// Нарушения контракта вызывающей стороны. Не гасятся внутри движка,
// а возвращаются наружу как отклоненный запрос.
var (
	ErrInvalidWindow    = errors.New("hours must be within [1,168]")
	ErrInvalidRetention = errors.New("days must be within [1,30]")
)

const (
	MinWindowHours = 1
	MaxWindowHours = 168 // неделя

	MinRetentionDays = 1
	MaxRetentionDays = 30
)

// percentileIndex выбирает индекс по правилу floor(p*n) с зажимом в [0, n-1].
// Интерполяции нет: перцентиль — всегда реальный элемент выборки.
func percentileIndex(p float64, n int) int {
	idx := int(p * float64(n))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// PerformanceSummary считает сводку по текущему содержимому буферов.
// Пустые буферы дают нулевые значения, а не ошибку. Без промежуточных
// записей повторный вызов возвращает идентичный результат.
func (c *Collector) PerformanceSummary() domain.PerformanceSummary {
	samples := c.requests.Snapshot(nil)

	times := make([]float64, 0, len(samples))
	var sum float64
	for _, s := range samples {
		times = append(times, s.ResponseTime)
		sum += s.ResponseTime
	}
	sort.Float64s(times)

	var rt domain.ResponseTimeStats
	if n := len(times); n > 0 {
		rt = domain.ResponseTimeStats{
			Average: sum / float64(n),
			P50:     times[percentileIndex(0.50, n)],
			P95:     times[percentileIndex(0.95, n)],
			P99:     times[percentileIndex(0.99, n)],
			Min:     times[0],
			Max:     times[n-1],
		}
	}

	var sys domain.SystemStats
	if latest, ok := c.system.Latest(); ok {
		sys = domain.SystemStats{
			CPUPercent:        latest.CPUPercent,
			MemoryPercent:     latest.MemoryPercent,
			DiskUsagePercent:  latest.DiskUsagePercent,
			ActiveConnections: latest.ActiveConnections,
		}
	}

	// Живой прокси скорости: запросы за трейлинг-минуту, не скользящее среднее
	cutoff := c.now().Add(-time.Minute)
	var lastMinute int
	for _, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			lastMinute++
		}
	}

	c.mu.RLock()
	unique := len(c.endpoints)
	c.mu.RUnlock()

	return domain.PerformanceSummary{
		ResponseTime: rt,
		System:       sys,
		Requests: domain.RequestStats{
			TotalRequests:     len(samples),
			RequestsPerMinute: float64(lastMinute),
			UniqueEndpoints:   unique,
		},
	}
}

// ErrorStatistics агрегирует отказы: общий счетчик, долю и разбивки.
// При нуле запросов доля ошибок равна нулю, деления на ноль нет.
func (c *Collector) ErrorStatistics() domain.ErrorStats {
	c.mu.RLock()

	var totalRequests, totalErrors int64
	endpointErrors := make(map[string]int64)
	for key, st := range c.endpoints {
		totalRequests += st.total
		if st.failed > 0 {
			endpointErrors[key.String()] = st.failed
		}
	}

	breakdown := make(map[int]int64, len(c.errTally))
	for code, n := range c.errTally {
		breakdown[code] = n
		totalErrors += n
	}
	c.mu.RUnlock()

	var rate float64
	if totalRequests > 0 {
		rate = float64(totalErrors) / float64(totalRequests)
	}

	return domain.ErrorStats{
		TotalRequests:  totalRequests,
		TotalErrors:    totalErrors,
		ErrorRate:      rate,
		ErrorBreakdown: breakdown,
		EndpointErrors: endpointErrors,
	}
}

// RequestWindow возвращает сэмплы запросов за последние hours часов
// в порядке вставки. hours вне [1,168] — нарушение контракта вызывающего.
func (c *Collector) RequestWindow(hours int) ([]domain.RequestSample, error) {
	if hours < MinWindowHours || hours > MaxWindowHours {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, hours)
	}
	cutoff := c.now().Add(-time.Duration(hours) * time.Hour)
	return c.requests.Snapshot(func(s domain.RequestSample) bool {
		return !s.Timestamp.Before(cutoff)
	}), nil
}

// SystemWindow возвращает системные снимки за последние hours часов.
func (c *Collector) SystemWindow(hours int) ([]domain.SystemSample, error) {
	if hours < MinWindowHours || hours > MaxWindowHours {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, hours)
	}
	cutoff := c.now().Add(-time.Duration(hours) * time.Hour)
	return c.system.Snapshot(func(s domain.SystemSample) bool {
		return !s.Timestamp.Before(cutoff)
	}), nil
}
