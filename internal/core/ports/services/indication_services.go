package services

import (
	"context"

	"github.com/enersync/utility_sync_app/internal/dto"
)

// IndicationPusher submits meter readings to the billing provider.
type IndicationPusher interface {
	PushIndications(ctx context.Context, req dto.IndicationsRequest) (*dto.PushResultResponse, error)
}

// IndicationCalculator runs what-if charge calculations without committing a
// submission.
type IndicationCalculator interface {
	CalculateIndications(ctx context.Context, req dto.IndicationsRequest) (*dto.CalculationResponse, error)
}

// IndicationSvcFacade combines the indication operation interfaces.
type IndicationSvcFacade interface {
	IndicationPusher
	IndicationCalculator
}
