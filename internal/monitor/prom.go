package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: распределение времен ответа, как их видит коллектор
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во принятых сэмплов запросов
	TotalRequests *prometheus.CounterVec

	// Errors: классификация отказов по HTTP-статусу
	ErrorTotal *prometheus.CounterVec

	// Saturation: заполненность кольцевых буферов (requests / system)
	SeriesFill *prometheus.GaugeVec

	// Вердикт здоровья: 0 - healthy, 1 - warning, 2 - critical
	HealthStatus prometheus.Gauge

	// Сбои фонового семплера ресурсов
	SamplerFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - если регистр не передан, используем локальный,
	// который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsewatch_request_duration_seconds",
			Help:    "Histogram of observed request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_requests_total",
			Help: "Total number of ingested request samples.",
		}, []string{"method", "path"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_errors_total",
			Help: "Total number of error responses by status code.",
		}, []string{"status"}),

		SeriesFill: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsewatch_series_fill",
			Help: "Current occupancy of the bounded sample series.",
		}, []string{"series"}),

		HealthStatus: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pulsewatch_health_status",
			Help: "Derived health verdict (0=healthy, 1=warning, 2=critical).",
		}),

		SamplerFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pulsewatch_sampler_failures_total",
			Help: "Total number of failed system resource probes.",
		}),
	}
}
