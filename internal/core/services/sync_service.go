package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/enersync/utility_sync_app/internal/dto"
)

// SyncService exposes on-demand reconciliation for API callers.
type SyncService struct {
	reconcilers map[string]*Reconciler
	logger      *slog.Logger
}

func NewSyncService(reconcilers map[string]*Reconciler, logger *slog.Logger) *SyncService {
	return &SyncService{reconcilers: reconcilers, logger: logger}
}

// RunAll cycles every managed account and reports one summary each. A failed
// cycle is reported in its summary and never blocks the other accounts.
func (s *SyncService) RunAll(ctx context.Context) []dto.CycleSummary {
	ids := make([]string, 0, len(s.reconcilers))
	for id := range s.reconcilers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]dto.CycleSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.reconcilers[id].RunCycle(ctx)
		if err != nil {
			summary.Error = err.Error()
			s.logger.Error("on-demand reconciliation failed",
				slog.String("managed_account", id),
				slog.String("error", err.Error()),
			)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
