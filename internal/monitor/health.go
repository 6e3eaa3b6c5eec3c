package monitor

import (
	"fmt"
	"time"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

var severityRank = map[string]int{
	domain.HealthHealthy:  0,
	domain.HealthWarning:  1,
	domain.HealthCritical: 2,
}

// HealthStatus применяет пороговые правила к текущим сводкам и возвращает
// вердикт. Состояние нигде не хранится — это чистая функция от выхода
// статистики.
func (c *Collector) HealthStatus() domain.HealthReport {
	report := evaluateHealth(c.PerformanceSummary(), c.ErrorStatistics(), c.thresholds, c.now().UTC())
	c.metrics.HealthStatus.Set(float64(severityRank[report.Status]))
	return report
}

// evaluateHealth проверяет четыре независимых правила в фиксированном порядке:
// среднее время ответа, доля ошибок, CPU, память. Правила не
// короткозамкнуты — собираются все применимые сообщения. Статус только
// эскалируется: critical не понижается обратно до warning в рамках одной
// оценки.
func evaluateHealth(perf domain.PerformanceSummary, errStats domain.ErrorStats, th Thresholds, now time.Time) domain.HealthReport {
	report := domain.HealthReport{
		Status:         domain.HealthHealthy,
		Timestamp:      now,
		Warnings:       []string{},
		CriticalIssues: []string{},
		Performance:    perf,
		ErrorStats:     errStats,
	}

	escalate := func(to string) {
		if severityRank[to] > severityRank[report.Status] {
			report.Status = to
		}
	}

	// 1. Среднее время ответа
	avg := perf.ResponseTime.Average
	switch {
	case avg > th.ResponseTimeCritical:
		report.CriticalIssues = append(report.CriticalIssues, fmt.Sprintf("High response time: %.2fs", avg))
		escalate(domain.HealthCritical)
	case avg > th.ResponseTimeWarning:
		report.Warnings = append(report.Warnings, fmt.Sprintf("Slow response time: %.2fs", avg))
		escalate(domain.HealthWarning)
	}

	// 2. Доля ошибок
	rate := errStats.ErrorRate
	switch {
	case rate > th.ErrorRateCritical:
		report.CriticalIssues = append(report.CriticalIssues, fmt.Sprintf("High error rate: %.2f%%", rate*100))
		escalate(domain.HealthCritical)
	case rate > th.ErrorRateWarning:
		report.Warnings = append(report.Warnings, fmt.Sprintf("Elevated error rate: %.2f%%", rate*100))
		escalate(domain.HealthWarning)
	}

	// 3. CPU по последнему снимку
	cpu := perf.System.CPUPercent
	switch {
	case cpu > th.CPUCritical:
		report.CriticalIssues = append(report.CriticalIssues, fmt.Sprintf("Critical CPU usage: %.1f%%", cpu))
		escalate(domain.HealthCritical)
	case cpu > th.CPUWarning:
		report.Warnings = append(report.Warnings, fmt.Sprintf("High CPU usage: %.1f%%", cpu))
		escalate(domain.HealthWarning)
	}

	// 4. Память по последнему снимку
	mem := perf.System.MemoryPercent
	switch {
	case mem > th.MemoryCritical:
		report.CriticalIssues = append(report.CriticalIssues, fmt.Sprintf("Critical memory usage: %.1f%%", mem))
		escalate(domain.HealthCritical)
	case mem > th.MemoryWarning:
		report.Warnings = append(report.Warnings, fmt.Sprintf("High memory usage: %.1f%%", mem))
		escalate(domain.HealthWarning)
	}

	return report
}
