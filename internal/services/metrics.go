package services

import "context"

// GenerationMetrics receives orchestrator counters. *observability.Metrics implements it.
type GenerationMetrics interface {
	ObserveAssetLookup(hit bool)
	ObserveFallback(stage string)
	ObserveImages(outcome string, count int)
	ObserveRateLimit(decision string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAssetLookup(bool)   {}
func (nopMetrics) ObserveFallback(string)    {}
func (nopMetrics) ObserveImages(string, int) {}
func (nopMetrics) ObserveRateLimit(string)   {}

func metricsOrNop(m GenerationMetrics) GenerationMetrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func loggerOrNop(logger func(context.Context, string, map[string]any)) func(context.Context, string, map[string]any) {
	if logger == nil {
		return func(context.Context, string, map[string]any) {}
	}
	return logger
}
