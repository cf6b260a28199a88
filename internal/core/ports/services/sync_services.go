package services

import (
	"context"

	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/dto"
)

// SyncSvcFacade triggers on-demand reconciliation of all managed accounts.
type SyncSvcFacade interface {
	RunAll(ctx context.Context) []dto.CycleSummary
}

// EntitySvcFacade lists the currently published entity snapshots.
type EntitySvcFacade interface {
	Entities(ctx context.Context) []entity.Snapshot
}
