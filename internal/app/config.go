package app

import "time"

// Поддерживаемые драйверы слота снимков.
const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска cart-service.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	CatalogURL            string
	CatalogTimeout        time.Duration
	BreakerMaxFailures    int
	BreakerResetTimeout   time.Duration
	AllowMockIntegrations bool

	StorageDriver       string
	RedisAddr           string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers []string

	StrictFirstAdd       bool
	RequestTimeout       time.Duration
	NotificationCapacity int
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:              ":8080",
		GRPCAddr:              ":50051",
		MetricsAddr:           ":9090",
		CatalogTimeout:        5 * time.Second,
		BreakerMaxFailures:    5,
		BreakerResetTimeout:   30 * time.Second,
		AllowMockIntegrations: true,
		StorageDriver:         StorageDriverMemory,
		RedisAddr:             "localhost:6379",
		PostgresAutoMigrate:   true,
		RequestTimeout:        10 * time.Second,
		NotificationCapacity:  32,
	}
}
