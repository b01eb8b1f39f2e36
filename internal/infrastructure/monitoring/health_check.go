package monitoring

import (
	"context"
	"time"
)

// StoragePinger is satisfied by the repository factory.
type StoragePinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthStatus is the body served on the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Uptime  string `json:"uptime"`
}

// HealthChecker reports liveness plus storage backend health.
type HealthChecker struct {
	storage StoragePinger
	started time.Time
}

func NewHealthChecker(storage StoragePinger) *HealthChecker {
	return &HealthChecker{
		storage: storage,
		started: time.Now(),
	}
}

// Check probes the storage backend and returns the overall status.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:  "ok",
		Storage: "ok",
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.storage.HealthCheck(ctx); err != nil {
		status.Status = "degraded"
		status.Storage = err.Error()
	}
	return status
}
