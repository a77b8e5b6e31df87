package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRunAddress       = "localhost:8080"
	defaultJWTSecret        = "default-secret-change-in-production"
	defaultTokenExpiration  = 24 * time.Hour
	defaultRatingCacheTTL   = 10 * time.Minute
	defaultDeliveryInterval = 15 * time.Second
	defaultLogLevel         = "info"
)

// Config содержит конфигурацию приложения.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	JWTSecret       string
	TokenExpiration time.Duration
	LogLevel        string

	// Пустой RedisAddress отключает кэш сводок оценок.
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	RatingCacheTTL time.Duration

	// DeliveryInterval - период повторной доставки уведомлений.
	DeliveryInterval time.Duration
}

// Load загружает конфигурацию из .env, флагов командной строки и переменных окружения.
// Приоритет: переменные окружения > флаги > значения по умолчанию.
func Load() *Config {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.DurationVar(&cfg.TokenExpiration, "t", defaultTokenExpiration, "время жизни токена")
	flag.StringVar(&cfg.RedisAddress, "r", "", "адрес Redis для кэша оценок")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "уровень логирования")
	flag.Parse()

	if v := os.Getenv("RUN_ADDRESS"); v != "" {
		cfg.RunAddress = v
	}
	if v := os.Getenv("DATABASE_URI"); v != "" {
		cfg.DatabaseURI = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.RedisAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = envInt("REDIS_DB", 0)

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}

	cfg.TokenExpiration = envDuration("TOKEN_EXPIRATION", cfg.TokenExpiration)
	cfg.RatingCacheTTL = envDuration("RATING_CACHE_TTL", defaultRatingCacheTTL)
	cfg.DeliveryInterval = envDuration("DELIVERY_INTERVAL", defaultDeliveryInterval)

	return cfg
}

// envDuration читает длительность из окружения, при ошибке разбора оставляет fallback.
func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
