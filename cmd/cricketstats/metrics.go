package main

import (
	"go.uber.org/zap"

	"cricketstats/internal/config"
	"cricketstats/internal/metrics"
	"cricketstats/internal/metrics/datadog"
	"cricketstats/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns a flush func to
// defer. An unusable backend is logged and metrics stay disabled.
func setupMetrics(cfg config.MetricsConfig, logger *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Backend {
	case "", "none":
		logger.Debug("metrics disabled")
		return func() {}
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.DatadogNamespace,
			GlobalTags: []string{"job:" + cfg.Job},
		})
	default:
		logger.Warn("unknown metrics backend; metrics disabled", zap.String("backend", cfg.Backend))
		return func() {}
	}
	if err != nil {
		logger.Warn("metrics backend unavailable; using nop", zap.String("backend", cfg.Backend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	logger.Debug("metrics enabled", zap.String("backend", cfg.Backend), zap.String("job", cfg.Job))
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", zap.Error(err))
		}
	}
}
