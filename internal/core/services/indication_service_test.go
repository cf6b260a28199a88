package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/enersync/utility_sync_app/internal/core/services"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/events"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/enersync/utility_sync_app/internal/registry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type IndicationServiceTestSuite struct {
	suite.Suite
	mockProvider *MockAccountProvider
	mockNotifier *MockNotifier
	mockBus      *MockEventBus
	registry     *registry.Registry
	service      *services.IndicationService
	refreshed    chan struct{}
}

func (suite *IndicationServiceTestSuite) SetupTest() {
	suite.mockProvider = new(MockAccountProvider)
	suite.mockNotifier = new(MockNotifier)
	suite.mockBus = new(MockEventBus)
	suite.registry = registry.New()
	suite.refreshed = make(chan struct{}, 1)

	suite.service = services.NewIndicationService(
		suite.registry,
		suite.mockNotifier,
		suite.mockBus,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	suite.service.RegisterManagedAccount(testManagedAccount, suite.mockProvider, &sync.Mutex{},
		func(ctx context.Context) { suite.refreshed <- struct{}{} })

	suite.seedScope()
}

// seedScope populates the registry with one account holding an electricity
// meter and a generic meter.
func (suite *IndicationServiceTestSuite) seedScope() {
	scope := suite.registry.GetOrCreateScope(testManagedAccount)

	account := domain.Account{
		ServiceID:   101,
		AccountCode: "1234567890",
		ServiceType: domain.ServiceElectricity,
	}
	acctEnt := entity.NewAccountEntity(account, config.DefaultAccountNameFormat)

	submitted := int64(120)
	electricity := &domain.ElectricityMeter{
		Code:                 "EM-1",
		Account:              account.AccountCode,
		PeriodStart:          time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		PeriodEnd:            time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC),
		LastIndications:      []int64{100, 50},
		SubmittedIndications: []*int64{&submitted, nil},
	}
	acctEnt.SetMeter("EM-1", entity.NewMeterEntity(electricity, config.DefaultMeterNameFormat))

	generic := &domain.GenericMeter{
		Code:    "GM-1",
		Account: account.AccountCode,
		Readings: map[string]domain.Reading{
			"cold_water": {Name: "Cold water", Value: decimal.NewFromInt(33), Unit: "m3"},
		},
	}
	acctEnt.SetMeter("GM-1", entity.NewMeterEntity(generic, config.DefaultMeterNameFormat))

	scope.Upsert(account.AccountCode, acctEnt)
}

func strPtr(s string) *string { return &s }

func (suite *IndicationServiceTestSuite) TestPushIndications_Incremental() {
	ctx := context.Background()

	// Baselines: tariff 1 has a submitted value (120), tariff 2 falls back
	// to the last value (50).
	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", []int64{125, 53}, ports.SubmitOptions{}).
		Return("accepted", nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypePushResult, mock.Anything).Once()

	resp, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("EM-1"),
		Indications: dto.IndicationValues{5, 3},
		Incremental: true,
	})

	suite.Require().NoError(err)
	suite.Equal("meter_EM-1", resp.EntityID)
	suite.Equal([]int64{125, 53}, resp.Indications)
	suite.Equal("accepted", resp.Comment)

	select {
	case <-suite.refreshed:
	case <-time.After(time.Second):
		suite.Fail("expected an out-of-cycle refresh after push")
	}

	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockBus.AssertExpectations(suite.T())
}

func (suite *IndicationServiceTestSuite) TestPushIndications_Absolute() {
	ctx := context.Background()

	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", []int64{130, 60}, ports.SubmitOptions{IgnorePeriod: true}).
		Return("accepted", nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypePushResult, mock.Anything).Once()

	resp, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		EntityID:     strPtr("meter_EM-1"),
		Indications:  dto.IndicationValues{130, 60},
		IgnorePeriod: true,
	})

	suite.Require().NoError(err)
	suite.Equal([]int64{130, 60}, resp.Indications)
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *IndicationServiceTestSuite) TestPushIndications_MeterNotFound() {
	ctx := context.Background()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("nope"),
		Indications: dto.IndicationValues{1},
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrMeterNotFound)
	suite.mockProvider.AssertNotCalled(suite.T(), "SubmitIndications", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IndicationServiceTestSuite) TestPushIndications_UnsupportedMeter() {
	ctx := context.Background()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("GM-1"),
		Indications: dto.IndicationValues{1},
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsupported)
	suite.mockProvider.AssertNotCalled(suite.T(), "SubmitIndications", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IndicationServiceTestSuite) TestPushIndications_ProviderRejection() {
	ctx := context.Background()

	rejection := apperrors.ErrIndicationsCount
	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", mock.Anything, mock.Anything).
		Return("", rejection).Once()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("EM-1"),
		Indications: dto.IndicationValues{130, 60},
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrIndicationsCount)

	// A failed push never fires an event or requests a refresh.
	suite.mockBus.AssertNotCalled(suite.T(), "Fire", mock.Anything, mock.Anything, mock.Anything)
	suite.Empty(suite.refreshed)
}

func (suite *IndicationServiceTestSuite) TestPushIndications_NotificationDefaults() {
	ctx := context.Background()

	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", mock.Anything, mock.Anything).
		Return("accepted", nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypePushResult, mock.Anything).Once()

	var sent ports.Notification
	suite.mockNotifier.On("CreateNotification", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(ports.Notification) }).
		Return(nil).Once()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:          strPtr("EM-1"),
		Indications:        dto.IndicationValues{130, 60},
		CreateNotification: dto.NotificationSpec{Enabled: true},
	})

	suite.Require().NoError(err)
	suite.mockNotifier.AssertExpectations(suite.T())
	suite.Equal("usync_push_indications_EM-1", sent.NotificationID)
	suite.Equal("Indications submitted for meter EM-1", sent.Title)
	suite.Contains(sent.Message, "2025-06-15")
	suite.Contains(sent.Message, "2025-06-26")
}

func (suite *IndicationServiceTestSuite) TestPushIndications_NotificationOverrides() {
	ctx := context.Background()

	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", mock.Anything, mock.Anything).
		Return("accepted", nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypePushResult, mock.Anything).Once()

	var sent ports.Notification
	suite.mockNotifier.On("CreateNotification", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(ports.Notification) }).
		Return(nil).Once()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("EM-1"),
		Indications: dto.IndicationValues{130, 60},
		CreateNotification: dto.NotificationSpec{
			Enabled: true,
			Title:   strPtr("Pushed {indications} to {meter_code}"),
		},
	})

	suite.Require().NoError(err)
	suite.Equal("Pushed 130, 60 to EM-1", sent.Title)
}

func (suite *IndicationServiceTestSuite) TestPushIndications_BrokenTemplateSkipsNotification() {
	ctx := context.Background()

	suite.mockProvider.On("SubmitIndications", mock.Anything, "EM-1", mock.Anything, mock.Anything).
		Return("accepted", nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypePushResult, mock.Anything).Once()

	_, err := suite.service.PushIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("EM-1"),
		Indications: dto.IndicationValues{130, 60},
		CreateNotification: dto.NotificationSpec{
			Enabled: true,
			Title:   strPtr("{no_such_field}"),
		},
	})

	// The push itself succeeds; only the notification is dropped.
	suite.Require().NoError(err)
	suite.mockNotifier.AssertNotCalled(suite.T(), "CreateNotification", mock.Anything, mock.Anything)
}

func (suite *IndicationServiceTestSuite) TestCalculateIndications() {
	ctx := context.Background()

	calculation := &domain.ChargeCalculation{
		Period:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Charged:     decimal.NewFromFloat(245.30),
		Indications: map[string]int64{"t1": 130, "t2": 60},
		Comment:     "calculated without submission",
	}
	suite.mockProvider.On("CalculateCharge", mock.Anything, "EM-1", []int64{130, 60}, ports.SubmitOptions{}).
		Return(calculation, nil).Once()
	suite.mockBus.On("Fire", mock.Anything, events.TypeCalculationResult, mock.Anything).Once()

	resp, err := suite.service.CalculateIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("EM-1"),
		Indications: dto.IndicationValues{130, 60},
	})

	suite.Require().NoError(err)
	suite.Equal("2025-06-01", resp.Period)
	suite.Equal("245.3", resp.Charged)
	suite.Equal(map[string]int64{"t1": 130, "t2": 60}, resp.Breakdown)

	// Calculation never triggers a refresh.
	suite.Empty(suite.refreshed)
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockBus.AssertExpectations(suite.T())
}

func (suite *IndicationServiceTestSuite) TestCalculateIndications_UnsupportedMeter() {
	ctx := context.Background()

	_, err := suite.service.CalculateIndications(ctx, dto.IndicationsRequest{
		MeterCode:   strPtr("GM-1"),
		Indications: dto.IndicationValues{1},
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsupported)
}

func TestIndicationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IndicationServiceTestSuite))
}
