package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/archive"
	"github.com/xela07ax/pulsewatch-prototype/internal/cache"
	"github.com/xela07ax/pulsewatch-prototype/internal/console/handler"
	"github.com/xela07ax/pulsewatch-prototype/internal/console/server"
	"github.com/xela07ax/pulsewatch-prototype/internal/console/service"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra"
	"github.com/xela07ax/pulsewatch-prototype/internal/infra/auth"
	"github.com/xela07ax/pulsewatch-prototype/internal/monitor"
	"github.com/xela07ax/pulsewatch-prototype/internal/repository/postgres"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Контекст для управления жизненным циклом фоновых горутин
	// При завершении main() или срабатывании SIGTERM, cancel() остановит сэмплер
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Движок телеметрии + метрики Prometheus
	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(reg)

	collector := monitor.NewCollector(monitor.Config{
		RequestCapacity: cfg.Monitor.RequestCapacity,
		SystemCapacity:  cfg.Monitor.SystemCapacity,
		Thresholds:      cfg.Monitor.Thresholds,
	}, logger, metrics)

	// Фоновый сэмплер ресурсов хоста (gopsutil)
	sampler := monitor.NewSampler(
		collector,
		monitor.GopsutilProber{DiskPath: "/"},
		cfg.Monitor.SampleInterval,
		cfg.Monitor.SampleErrorBackoff,
		logger,
		metrics,
	)
	go sampler.Run(appCtx)

	// Экспортируем метрики для Prometheus на отдельном листенере
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Fatal(http.ListenAndServe(cfg.Metrics.Addr, mux))
	}()

	// 3. Кэш (Redis) — опционален, без него работаем в режиме no-op
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	cacheSvc := cache.NewService(rdb, cfg.Redis.Enabled, logger)

	// 4. Архив (Postgres) — опционален
	var archiveWriter *archive.Writer
	if cfg.Archive.Enabled {
		if cfg.Database.URL == "" {
			log.Fatal("database.url is required when archive is enabled")
		}
		repo := postgres.NewArchiveRepo(cfg.Database.URL)
		if err := repo.Ping(appCtx); err != nil {
			log.Fatalf("failed to ping archive database: %v", err)
		}
		archiveWriter = archive.NewWriter(
			repo,
			cfg.Archive.BufferSize,
			cfg.Archive.BatchSize,
			cfg.Archive.FlushInterval,
			logger,
		)
		archiveWriter.Start()
	}

	// 5. Авторизация (RS256)
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		log.Fatalf("failed to parse public key: %v", err)
	}
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		log.Fatalf("failed to parse private key: %v", err)
	}
	authSvc := service.NewAuthService(
		cfg.Auth.AdminUser,
		cfg.Auth.AdminPasswordHash,
		privateKey,
		publicKey,
		cfg.Auth.TokenTTL,
	)

	// 6. HTTP Server консоли
	deps := server.Deps{
		Monitoring: handler.NewMonitoring(collector, cacheSvc, cfg.Cache.SummaryTTL, logger),
		Auth:       handler.NewAuth(authSvc, logger),
		Validator:  authSvc,
		Recorder:   collector,
		Logger:     logger,
	}
	if archiveWriter != nil {
		deps.Archiver = archiveWriter
	}
	srv := server.New(cfg.Server, deps)

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("pulsewatch console started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("pulsewatch stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server Shutdown Failed: %+v", err)
	}

	// Останавливаем фоновые горутины и дописываем архив
	cancel()
	if archiveWriter != nil {
		archiveWriter.Stop()
	}
	logger.Info("pulsewatch exited properly")
}
