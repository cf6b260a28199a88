package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/events"
	"github.com/enersync/utility_sync_app/internal/registry"
	"github.com/enersync/utility_sync_app/internal/utils/templating"
)

// RefreshFunc requests an out-of-cycle reconciliation of a managed account.
type RefreshFunc func(ctx context.Context)

// managedHandle binds a managed account to its provider, operation mutex and
// refresh hook for meter resolution across scopes.
type managedHandle struct {
	id       string
	provider ports.AccountProvider
	opMu     *sync.Mutex
	refresh  RefreshFunc
}

// IndicationService submits meter readings and runs what-if charge
// calculations against the provider, firing result events and optional user
// notifications.
type IndicationService struct {
	registry *registry.Registry
	notifier ports.Notifier
	bus      ports.EventBus
	logger   *slog.Logger

	mu      sync.RWMutex
	managed map[string]*managedHandle
}

func NewIndicationService(reg *registry.Registry, notifier ports.Notifier, bus ports.EventBus, logger *slog.Logger) *IndicationService {
	return &IndicationService{
		registry: reg,
		notifier: notifier,
		bus:      bus,
		logger:   logger,
		managed:  make(map[string]*managedHandle),
	}
}

// RegisterManagedAccount makes a managed account's meters addressable by the
// indication operations.
func (s *IndicationService) RegisterManagedAccount(id string, provider ports.AccountProvider, opMu *sync.Mutex, refresh RefreshFunc) {
	s.mu.Lock()
	s.managed[id] = &managedHandle{id: id, provider: provider, opMu: opMu, refresh: refresh}
	s.mu.Unlock()
}

// UnregisterManagedAccount removes a managed account and tears down its
// entity scope.
func (s *IndicationService) UnregisterManagedAccount(id string) {
	s.mu.Lock()
	delete(s.managed, id)
	s.mu.Unlock()
	s.registry.RemoveScope(id)
}

// PushIndications submits readings for the addressed meter. Incremental
// requests are resolved against the meter's per-tariff baseline before
// submission. On success it fires a push-result event, dispatches the
// requested notification and schedules an out-of-cycle refresh.
func (s *IndicationService) PushIndications(ctx context.Context, req dto.IndicationsRequest) (*dto.PushResultResponse, error) {
	handle, meterEnt, err := s.resolveMeter(req)
	if err != nil {
		return nil, err
	}

	meter := meterEnt.Meter()
	sub, ok := meter.(domain.SubmittableMeter)
	if !ok {
		return nil, fmt.Errorf("%w: meter %s does not support indication submission", apperrors.ErrUnsupported, meter.MeterCode())
	}

	values := resolveEffective(req.Indications, sub.Baseline(), req.Incremental)

	handle.opMu.Lock()
	comment, err := handle.provider.SubmitIndications(ctx, meter.MeterCode(), values, ports.SubmitOptions{
		IgnorePeriod: req.IgnorePeriod,
	})
	handle.opMu.Unlock()
	if err != nil {
		return nil, classifyProviderError(err)
	}

	result := events.PushResult{
		EntityID:    meterEnt.UniqueID(),
		MeterCode:   meter.MeterCode(),
		Indications: values,
		Comment:     comment,
	}
	s.bus.Fire(ctx, events.TypePushResult, result.ToMap())

	s.logger.Info("indications submitted",
		slog.String("meter_code", meter.MeterCode()),
		slog.Any("indications", values),
	)

	if req.CreateNotification.Enabled {
		start, end := sub.SubmitPeriod()
		s.dispatchNotification(ctx, req.CreateNotification, result.Fields(), ports.Notification{
			NotificationID: "usync_push_indications_" + meter.MeterCode(),
			Title:          fmt.Sprintf("Indications submitted for meter %s", meter.MeterCode()),
			Message: fmt.Sprintf("Indications submitted for meter %s for the period %s to %s.",
				meter.MeterCode(), start.Format("2006-01-02"), end.Format("2006-01-02")),
		})
	}

	if handle.refresh != nil {
		refresh := handle.refresh
		go refresh(context.WithoutCancel(ctx))
	}

	return &dto.PushResultResponse{
		EntityID:    result.EntityID,
		MeterCode:   result.MeterCode,
		Indications: result.Indications,
		Comment:     result.Comment,
	}, nil
}

// CalculateIndications runs a what-if charge calculation for the addressed
// meter. It never commits a submission and never triggers a refresh.
func (s *IndicationService) CalculateIndications(ctx context.Context, req dto.IndicationsRequest) (*dto.CalculationResponse, error) {
	handle, meterEnt, err := s.resolveMeter(req)
	if err != nil {
		return nil, err
	}

	meter := meterEnt.Meter()
	calc, ok := meter.(domain.CalculableMeter)
	if !ok {
		return nil, fmt.Errorf("%w: meter %s does not support charge calculation", apperrors.ErrUnsupported, meter.MeterCode())
	}

	values := resolveEffective(req.Indications, calc.Baseline(), req.Incremental)

	handle.opMu.Lock()
	calculation, err := handle.provider.CalculateCharge(ctx, meter.MeterCode(), values, ports.SubmitOptions{
		IgnorePeriod: req.IgnorePeriod,
	})
	handle.opMu.Unlock()
	if err != nil {
		return nil, classifyProviderError(err)
	}

	result := events.CalculationResult{
		EntityID:    meterEnt.UniqueID(),
		MeterCode:   meter.MeterCode(),
		Indications: values,
		Period:      calculation.Period.Format("2006-01-02"),
		Charged:     calculation.Charged.String(),
		Breakdown:   calculation.Indications,
		Comment:     calculation.Comment,
	}
	s.bus.Fire(ctx, events.TypeCalculationResult, result.ToMap())

	s.logger.Info("charge calculated",
		slog.String("meter_code", meter.MeterCode()),
		slog.String("charged", result.Charged),
	)

	if req.CreateNotification.Enabled {
		s.dispatchNotification(ctx, req.CreateNotification, result.Fields(), ports.Notification{
			NotificationID: "usync_calculate_indications_" + meter.MeterCode(),
			Title:          fmt.Sprintf("Charge calculation for meter %s", meter.MeterCode()),
			Message:        calculation.Comment,
		})
	}

	return &dto.CalculationResponse{
		EntityID:    result.EntityID,
		MeterCode:   result.MeterCode,
		Indications: result.Indications,
		Period:      result.Period,
		Charged:     result.Charged,
		Breakdown:   result.Breakdown,
		Comment:     result.Comment,
	}, nil
}

// resolveMeter locates the addressed meter entity across all managed-account
// scopes, by entity unique id or by meter code.
func (s *IndicationService) resolveMeter(req dto.IndicationsRequest) (*managedHandle, *entity.MeterEntity, error) {
	s.mu.RLock()
	handles := make([]*managedHandle, 0, len(s.managed))
	for _, h := range s.managed {
		handles = append(handles, h)
	}
	s.mu.RUnlock()

	for _, handle := range handles {
		scope := s.registry.Scope(handle.id)
		if scope == nil {
			continue
		}
		for _, acctEnt := range scope.All() {
			for _, meterEnt := range acctEnt.Meters() {
				if req.EntityID != nil && meterEnt.UniqueID() == *req.EntityID {
					return handle, meterEnt, nil
				}
				if req.MeterCode != nil && meterEnt.Meter().MeterCode() == *req.MeterCode {
					return handle, meterEnt, nil
				}
			}
		}
	}

	identifier := ""
	switch {
	case req.EntityID != nil:
		identifier = *req.EntityID
	case req.MeterCode != nil:
		identifier = *req.MeterCode
	}
	return nil, nil, fmt.Errorf("%w: %q", apperrors.ErrMeterNotFound, identifier)
}

// dispatchNotification renders override templates against the result event's
// fields and sends the notification. A broken override template skips the
// notification; the operation itself already succeeded.
func (s *IndicationService) dispatchNotification(ctx context.Context, spec dto.NotificationSpec, fields map[string]string, n ports.Notification) {
	apply := func(dst *string, override *string) error {
		if override == nil {
			return nil
		}
		rendered, err := templating.Render(*override, fields)
		if err != nil {
			return err
		}
		*dst = rendered
		return nil
	}

	for _, pair := range []struct {
		dst      *string
		override *string
	}{
		{&n.Title, spec.Title},
		{&n.Message, spec.Message},
		{&n.NotificationID, spec.NotificationID},
	} {
		if err := apply(pair.dst, pair.override); err != nil {
			s.logger.Error("invalid notification template, skipping notification",
				slog.String("error", err.Error()),
			)
			return
		}
	}

	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		s.logger.Error("error creating notification", slog.String("error", err.Error()))
	}
}

// resolveEffective turns request values into absolute submission values. For
// incremental requests each value is added to the meter's baseline for its
// tariff position.
func resolveEffective(raw []int64, baseline []int64, incremental bool) []int64 {
	out := make([]int64, len(raw))
	copy(out, raw)
	if !incremental {
		return out
	}
	for i := range out {
		if i < len(baseline) {
			out[i] += baseline[i]
		}
	}
	return out
}

// classifyProviderError keeps sentinel-tagged provider errors intact and
// wraps anything else as a generic provider failure.
func classifyProviderError(err error) error {
	if errors.Is(err, apperrors.ErrIndicationsCount) || errors.Is(err, apperrors.ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrProvider, err)
}
