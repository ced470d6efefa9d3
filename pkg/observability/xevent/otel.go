package xevent

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/reskit/xevent"

	metricOperationTotal    = "reskit.operation.total"
	metricBreakerTransition = "reskit.breaker.transitions.total"
	metricRetryAttempts     = "reskit.retry.attempts.total"
	metricCacheAccess       = "reskit.cache.access.total"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 计数器的 Observer。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	operations, err := meter.Int64Counter(
		metricOperationTotal,
		metric.WithDescription("total resilient operation executions by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xevent: create counter failed: %w", err)
	}

	transitions, err := meter.Int64Counter(
		metricBreakerTransition,
		metric.WithDescription("total circuit breaker state transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xevent: create counter failed: %w", err)
	}

	retries, err := meter.Int64Counter(
		metricRetryAttempts,
		metric.WithDescription("total retry attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xevent: create counter failed: %w", err)
	}

	cacheAccess, err := meter.Int64Counter(
		metricCacheAccess,
		metric.WithDescription("total cache accesses by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xevent: create counter failed: %w", err)
	}

	return &otelObserver{
		operations:  operations,
		transitions: transitions,
		retries:     retries,
		cacheAccess: cacheAccess,
	}, nil
}

type otelObserver struct {
	operations  metric.Int64Counter
	transitions metric.Int64Counter
	retries     metric.Int64Counter
	cacheAccess metric.Int64Counter
}

var _ Observer = (*otelObserver)(nil)

// OperationOutcome 记录操作结局计数。
func (o *otelObserver) OperationOutcome(e OutcomeEvent) {
	o.operations.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("key", e.Key),
		attribute.String("outcome", string(e.Outcome)),
	))
}

// BreakerTransition 记录熔断器状态迁移计数。
func (o *otelObserver) BreakerTransition(e TransitionEvent) {
	o.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("key", e.Key),
		attribute.String("from", e.From),
		attribute.String("to", e.To),
	))
}

// RetryAttempt 记录重试计数。
func (o *otelObserver) RetryAttempt(e RetryEvent) {
	o.retries.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("key", e.Key),
	))
}

// CacheAccess 记录缓存访问计数。
func (o *otelObserver) CacheAccess(e CacheEvent) {
	result := "miss"
	if e.Hit {
		result = "hit"
	}
	o.cacheAccess.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("cache", e.Cache),
		attribute.String("result", result),
	))
}
