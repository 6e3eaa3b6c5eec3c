package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

const (
	DefaultSampleInterval = 30 * time.Second
	// После сбоя измерения ждем дольше, прежде чем вернуться к номинальному темпу
	DefaultSampleErrorBackoff = 60 * time.Second
)

// ResourceProber абстрагирует измерение ресурсов хоста (подменяется в тестах).
type ResourceProber interface {
	Probe(ctx context.Context) (cpuPercent, memPercent, diskPercent float64, err error)
}

// GopsutilProber — боевая реализация на gopsutil.
type GopsutilProber struct {
	// DiskPath — точка монтирования для замера диска, по умолчанию "/"
	DiskPath string
}

func (p GopsutilProber) Probe(ctx context.Context) (float64, float64, float64, error) {
	percents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("cpu probe: %w", err)
	}
	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("memory probe: %w", err)
	}

	path := p.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("disk probe: %w", err)
	}

	return cpuPercent, vm.UsedPercent, du.UsedPercent, nil
}

// Sampler — фоновая задача, снимающая системный снимок с фиксированным
// периодом и пишущая его в системный буфер коллектора. Запускается один раз
// при старте процесса и живет до его завершения.
type Sampler struct {
	collector *Collector
	prober    ResourceProber
	interval  time.Duration
	backoff   time.Duration
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time
}

func NewSampler(c *Collector, prober ResourceProber, interval, backoff time.Duration, logger *zap.Logger, metrics *Metrics) *Sampler {
	if prober == nil {
		prober = GopsutilProber{}
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if backoff <= 0 {
		backoff = DefaultSampleErrorBackoff
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Sampler{
		collector: c,
		prober:    prober,
		interval:  interval,
		backoff:   backoff,
		logger:    logger.Named("sampler"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Run блокируется до отмены контекста. Сбой измерения не завершает цикл:
// ошибка логируется, следующая попытка — через увеличенный интервал.
func (s *Sampler) Run(ctx context.Context) {
	s.logger.Info("system sampler started",
		zap.Duration("interval", s.interval),
		zap.Duration("error_backoff", s.backoff),
	)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("system sampler stopped")
			return
		case <-timer.C:
			delay := s.interval
			if err := s.SampleOnce(ctx); err != nil {
				s.logger.Error("system sampling failed", zap.Error(err))
				s.metrics.SamplerFailures.Inc()
				delay = s.backoff
			}
			timer.Reset(delay)
		}
	}
}

// SampleOnce снимает один снимок и записывает его в коллектор.
func (s *Sampler) SampleOnce(ctx context.Context) error {
	cpuPercent, memPercent, diskPercent, err := s.prober.Probe(ctx)
	if err != nil {
		return err
	}

	s.collector.RecordSystem(domain.SystemSample{
		CPUPercent:       cpuPercent,
		MemoryPercent:    memPercent,
		DiskUsagePercent: diskPercent,
		// Занятость буфера запросов, не реальные соединения
		ActiveConnections: s.collector.ActiveConnections(),
		Timestamp:         s.now().UTC(),
	})
	return nil
}
