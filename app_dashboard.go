package main

import "github.com/ImOrenge/voicemacropro-sub000/internal/domain"

// DashboardSnapshot aggregates macro stats, session counters, backend
// health and the latest system metrics sample.
func (a *App) DashboardSnapshot() (domain.DashboardSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.DashboardSnapshot{}, err
	}
	snapshot, err := a.services.Dashboard.Snapshot(a.ctx)
	if err != nil {
		a.reportError("load dashboard", err)
		return domain.DashboardSnapshot{}, err
	}
	return snapshot, nil
}

// CheckBackendHealth probes the backend health endpoint.
func (a *App) CheckBackendHealth() bool {
	if err := a.requireReady(); err != nil {
		return false
	}
	if err := a.services.API.Health(a.ctx); err != nil {
		a.services.Logs.Errorf("backend health check failed: %v", err)
		return false
	}
	return true
}
