package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/app"
	"github.com/vladislavdragonenkov/shopcart/internal/version"
)

const (
	envHTTPAddr              = "CART_HTTP_ADDR"
	envGRPCAddr              = "CART_GRPC_ADDR"
	envMetricsAddr           = "CART_METRICS_ADDR"
	envCatalogURL            = "CART_CATALOG_URL"
	envCatalogTimeout        = "CART_CATALOG_TIMEOUT"
	envBreakerMaxFailures    = "CART_BREAKER_MAX_FAILURES"
	envBreakerResetTimeout   = "CART_BREAKER_RESET_TIMEOUT"
	envAllowMockIntegrations = "CART_ALLOW_MOCK_INTEGRATIONS"
	envStorageDriver         = "CART_STORAGE_DRIVER"
	envRedisAddr             = "CART_REDIS_ADDR"
	envPostgresDSN           = "CART_POSTGRES_DSN"
	envPostgresAutoMigrate   = "CART_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers          = "CART_KAFKA_BROKERS"
	envStrictFirstAdd        = "CART_STRICT_FIRST_ADD"
	envLogLevel              = "CART_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) []string {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	raw, ok := lookup(envLogLevel)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return []string{fmt.Sprintf("%s: %v, using info", envLogLevel, err)}
	}
	log.SetLevel(level)
	return nil
}

// readConfigFromEnv формирует конфигурацию; некорректные значения заменяются
// значениями по умолчанию и возвращаются как предупреждения.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v, using default", key, err))
	}

	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, target *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseBool(v)
			if err != nil {
				warn(key, err)
				return
			}
			*target = parsed
		}
	}
	duration := func(key string, target *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
			if err != nil {
				warn(key, err)
				return
			}
			*target = parsed
		}
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envCatalogURL, &cfg.CatalogURL)
	duration(envCatalogTimeout, &cfg.CatalogTimeout)
	duration(envBreakerResetTimeout, &cfg.BreakerResetTimeout)
	boolean(envAllowMockIntegrations, &cfg.AllowMockIntegrations)
	str(envRedisAddr, &cfg.RedisAddr)
	str(envPostgresDSN, &cfg.PostgresDSN)
	boolean(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	boolean(envStrictFirstAdd, &cfg.StrictFirstAdd)

	if v, ok := lookup(envBreakerMaxFailures); ok && strings.TrimSpace(v) != "" {
		parsed, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0")
		if err != nil {
			warn(envBreakerMaxFailures, err)
		} else {
			cfg.BreakerMaxFailures = parsed
		}
	}

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(envKafkaBrokers); ok {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, validate func(int) bool, msg string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if validate != nil && !validate(value) {
		return 0, fmt.Errorf("invalid value %d: %s", value, msg)
	}
	return value, nil
}

func parseDuration(raw string, validate func(time.Duration) bool, msg string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if validate != nil && !validate(value) {
		return 0, fmt.Errorf("invalid duration %s: %s", value, msg)
	}
	return value, nil
}

func main() {
	// .env необязателен: в контейнере конфигурация приходит из окружения.
	dotenvErr := godotenv.Load()

	warnings := setupLogger(os.LookupEnv)
	cfg, cfgWarnings := readConfigFromEnv(os.LookupEnv)
	warnings = append(warnings, cfgWarnings...)

	if dotenvErr != nil && !errors.Is(dotenvErr, os.ErrNotExist) {
		log.WithError(dotenvErr).Warn("failed to load .env")
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"catalog_url":    cfg.CatalogURL,
		"kafka_brokers":  cfg.KafkaBrokers,
		"version":        version.GetVersion(),
	}).Info("запускаем cart-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("cart-service остановлен")
}
