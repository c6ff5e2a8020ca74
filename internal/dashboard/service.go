package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// MacroLister fetches the macro list from the backend.
type MacroLister interface {
	ListMacros(ctx context.Context, search, sortBy string) ([]domain.Macro, error)
}

// HealthChecker probes backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SessionStats exposes the current voice session counters.
type SessionStats interface {
	Stats() domain.VoiceSession
}

// MetricsSource exposes the latest system metrics sample.
type MetricsSource interface {
	Latest() domain.SystemMetrics
}

// Service assembles the dashboard screen's aggregate view.
type Service struct {
	macros  MacroLister
	health  HealthChecker
	session SessionStats
	metrics MetricsSource
	topN    int
}

func NewService(macros MacroLister, health HealthChecker, session SessionStats, metrics MetricsSource) *Service {
	return &Service{
		macros:  macros,
		health:  health,
		session: session,
		metrics: metrics,
		topN:    5,
	}
}

// Snapshot fetches macros and combines them with session counters and
// the latest metrics sample. A macro fetch failure fails the snapshot;
// an unhealthy backend does not, it is part of the snapshot.
func (s *Service) Snapshot(ctx context.Context) (domain.DashboardSnapshot, error) {
	macros, err := s.macros.ListMacros(ctx, "", "usage")
	if err != nil {
		return domain.DashboardSnapshot{}, err
	}

	snapshot := domain.DashboardSnapshot{
		TotalMacros:    len(macros),
		BackendHealthy: s.health.Health(ctx) == nil,
		Session:        s.session.Stats(),
		Metrics:        s.metrics.Latest(),
		GeneratedAt:    time.Now(),
	}

	for _, m := range macros {
		snapshot.TotalUsage += m.UsageCount
	}

	sorted := append([]domain.Macro(nil), macros...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if len(sorted) > s.topN {
		sorted = sorted[:s.topN]
	}
	snapshot.TopMacros = sorted

	return snapshot, nil
}
