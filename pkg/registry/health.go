package registry

import (
	"context"
	"sort"

	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
)

// Backend names the catalog a Client reads from.
type Backend string

const (
	BackendPostgres    Backend = "postgres"
	BackendCatalogFile Backend = "catalog_file"
)

// HealthStatus is a point-in-time view of what the client depends on.
type HealthStatus struct {
	Backend Backend
	Status  string            // "ok", "degraded", "error"
	Checks  map[string]string // "database" and, with a cache, "cache"
}

// Serving reports whether queries can be answered. A failing cache only degrades.
func (h HealthStatus) Serving() bool {
	return h.Checks[healthuc.ComponentDatabase] == string(healthuc.CheckOK)
}

// Failing lists the components whose check failed, sorted by name.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, res := range h.Checks {
		if res != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health probes the catalog backend and the candidate cache when one is configured.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{
		Backend: c.backend,
		Status:  string(report.Status),
		Checks:  make(map[string]string, len(report.Checks)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
