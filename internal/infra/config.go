package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xela07ax/pulsewatch-prototype/internal/monitor"
)

// Config — корневая структура конфигурации всего сервиса.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера консоли.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig — отдельный листенер для Prometheus-скрейпа.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig описывает подключение к Redis (TTL-кэш).
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig описывает подключение к PostgreSQL (архив сэмплов).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// AuthConfig содержит пути к RSA ключам, настройки JWT и учетку админа.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	// AdminPasswordHash — bcrypt-хэш пароля администратора консоли
	AdminUser         string `mapstructure:"admin_user"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	PublicKey         []byte
	PrivateKey        []byte
}

// MonitorConfig — настройки движка наблюдаемости.
type MonitorConfig struct {
	RequestCapacity    int                `mapstructure:"request_capacity"`
	SystemCapacity     int                `mapstructure:"system_capacity"`
	SampleInterval     time.Duration      `mapstructure:"sample_interval"`
	SampleErrorBackoff time.Duration      `mapstructure:"sample_error_backoff"`
	Thresholds         monitor.Thresholds `mapstructure:"thresholds"`
}

// CacheConfig — TTL кэшируемых ответов мониторинга.
type CacheConfig struct {
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
}

// ArchiveConfig — фоновая архивация сэмплов запросов в Postgres.
// По умолчанию выключена: контракт движка — состояние живет в памяти процесса.
type ArchiveConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Загрузка ключей из Файла ИЛИ из ENV
	// Сначала проверяем, не лежит ли сам PEM-ключ в ENV (для Docker/K8s)
	// Если нет — читаем файл по указанному пути
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("monitor.request_capacity", monitor.DefaultRequestCapacity)
	v.SetDefault("monitor.system_capacity", monitor.DefaultSystemCapacity)
	v.SetDefault("monitor.sample_interval", monitor.DefaultSampleInterval)
	v.SetDefault("monitor.sample_error_backoff", monitor.DefaultSampleErrorBackoff)

	// Пороги, под которые откалиброваны существующие дашборды
	th := monitor.DefaultThresholds()
	v.SetDefault("monitor.thresholds.response_time_warning", th.ResponseTimeWarning)
	v.SetDefault("monitor.thresholds.response_time_critical", th.ResponseTimeCritical)
	v.SetDefault("monitor.thresholds.cpu_warning", th.CPUWarning)
	v.SetDefault("monitor.thresholds.cpu_critical", th.CPUCritical)
	v.SetDefault("monitor.thresholds.memory_warning", th.MemoryWarning)
	v.SetDefault("monitor.thresholds.memory_critical", th.MemoryCritical)
	v.SetDefault("monitor.thresholds.error_rate_warning", th.ErrorRateWarning)
	v.SetDefault("monitor.thresholds.error_rate_critical", th.ErrorRateCritical)

	v.SetDefault("cache.summary_ttl", 5*time.Second)

	v.SetDefault("archive.buffer_size", 10000)
	v.SetDefault("archive.batch_size", 100)
	v.SetDefault("archive.flush_interval", 500*time.Millisecond)

	v.SetDefault("auth.token_ttl", 30*time.Minute)
}

// loadKeyResource — универсальный хелпер архитектора
func loadKeyResource(path string, envDataKey string) []byte {
	// Если ключ прилетел напрямую в ENV (Base64 или PEM)
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	// Иначе читаем файл по пути из конфига
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
