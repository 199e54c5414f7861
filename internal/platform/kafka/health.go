package kafka

import (
	"context"
	"fmt"
)

// Pinger is satisfied by the producer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports broker reachability for readiness probes.
type HealthChecker struct {
	pinger Pinger
}

func NewHealthChecker(p Pinger) *HealthChecker {
	return &HealthChecker{pinger: p}
}

// Check succeeds when at least one broker answers.
func (h *HealthChecker) Check(ctx context.Context) error {
	if err := h.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("kafka unreachable: %w", err)
	}
	return nil
}

func (h *HealthChecker) Name() string {
	return "kafka"
}
