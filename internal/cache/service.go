package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// Service — TTL key/value кэш поверх Redis для дорогих ответов мониторинга.
// Кэш — чистая оптимизация: выключенный или недоступный Redis превращает все
// операции в no-op, ошибки кэша никогда не доходят до вызывающего.
// Circuit Breaker изолирует моргающий Redis от горячего пути.
type Service struct {
	rdb     *redis.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	enabled bool

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

func NewService(rdb *redis.Client, enabled bool, logger *zap.Logger) *Service {
	// Настройка предохранителя: после серии отказов Redis перестаем ходить
	// в него вовсе и какое-то время отвечаем промахами из памяти
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Service{
		rdb:     rdb,
		cb:      cb,
		logger:  logger.Named("cache"),
		enabled: enabled && rdb != nil,
	}
}

// Enabled сообщает, работает ли кэш (для health-отчета сервиса).
func (s *Service) Enabled() bool {
	return s.enabled
}

// Get возвращает значение по ключу. Любой сбой кэша — это промах, не ошибка.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.rdb.Get(ctx, key).Bytes()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
		} else {
			s.errs.Add(1)
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	s.hits.Add(1)
	return result.([]byte), true
}

// Set кладет значение с TTL. Сбой записи только логируется.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.enabled {
		return
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rdb.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		s.errs.Add(1)
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete удаляет ключ.
func (s *Service) Delete(ctx context.Context, key string) {
	if !s.enabled {
		return
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rdb.Del(ctx, key).Err()
	})
	if err != nil {
		s.errs.Add(1)
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// ClearPattern удаляет все ключи по шаблону. Идем через SCAN, а не KEYS,
// чтобы не блокировать Redis на большом кейспейсе.
func (s *Service) ClearPattern(ctx context.Context, pattern string) int64 {
	if !s.enabled {
		return 0
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		var removed int64
		iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if delErr := s.rdb.Del(ctx, iter.Val()).Err(); delErr == nil {
				removed++
			}
		}
		if err := iter.Err(); err != nil {
			return removed, err
		}
		return removed, nil
	})
	if err != nil {
		s.errs.Add(1)
		s.logger.Warn("cache clear failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}
	return result.(int64)
}

// Stats возвращает состояние кэша для мониторингового API.
func (s *Service) Stats(ctx context.Context) domain.CacheStats {
	stats := domain.CacheStats{
		Enabled: s.enabled,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Errors:  s.errs.Load(),
	}
	if !s.enabled {
		return stats
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.rdb.DBSize(ctx).Result()
	})
	if err != nil {
		s.errs.Add(1)
		return stats
	}
	stats.Keys = result.(int64)
	return stats
}
