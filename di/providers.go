package di

import (
	"time"

	"tripcore/config"
	"tripcore/shared/resilience"
)

func provideBreakerRegistry(cfg *config.Config) *resilience.Registry {
	return resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Resilience.Breaker.SuccessThreshold,
		OpenTimeout:      time.Duration(cfg.Resilience.Breaker.OpenTimeoutSeconds) * time.Second,
	})
}
