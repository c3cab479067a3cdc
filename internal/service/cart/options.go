package cart

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	"github.com/vladislavdragonenkov/shopcart/internal/metrics"
)

// Options задаёт параметры Store.
type Options struct {
	Logger         *log.Entry
	Metrics        *metrics.CartMetrics
	StorageKey     string
	StrictFirstAdd bool
}

// Option настраивает Store.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics включает prometheus-метрики.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithStorageKey переопределяет имя слота снимка.
func WithStorageKey(key string) Option {
	return func(opts *Options) {
		opts.StorageKey = key
	}
}

// WithStrictFirstAdd включает проверку остатка (>= 1) при первом добавлении товара.
// По умолчанию первое добавление принимается при любом остатке.
func WithStrictFirstAdd(strict bool) Option {
	return func(opts *Options) {
		opts.StrictFirstAdd = strict
	}
}

func buildOptions(options []Option) Options {
	opts := Options{StorageKey: domain.CartStorageKey}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "cart-store")
	}
	if opts.StorageKey == "" {
		opts.StorageKey = domain.CartStorageKey
	}
	return opts
}
