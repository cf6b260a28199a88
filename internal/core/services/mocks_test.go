package services_test

import (
	"context"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountProvider is a mock type for the AccountProvider interface
type MockAccountProvider struct {
	mock.Mock
}

func (m *MockAccountProvider) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAccountProvider) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAccountProvider) Accounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountProvider) Meters(ctx context.Context, accountCode string) ([]domain.Meter, error) {
	args := m.Called(ctx, accountCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Meter), args.Error(1)
}

func (m *MockAccountProvider) LastInvoice(ctx context.Context, accountCode string) (*domain.Invoice, error) {
	args := m.Called(ctx, accountCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockAccountProvider) LastPayment(ctx context.Context, accountCode string) (*domain.Payment, error) {
	args := m.Called(ctx, accountCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockAccountProvider) CurrentBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountCode)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountProvider) RemainingDays(ctx context.Context, accountCode string) (int, error) {
	args := m.Called(ctx, accountCode)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountProvider) SubmitIndications(ctx context.Context, meterCode string, values []int64, opts ports.SubmitOptions) (string, error) {
	args := m.Called(ctx, meterCode, values, opts)
	return args.String(0), args.Error(1)
}

func (m *MockAccountProvider) CalculateCharge(ctx context.Context, meterCode string, values []int64, opts ports.SubmitOptions) (*domain.ChargeCalculation, error) {
	args := m.Called(ctx, meterCode, values, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeCalculation), args.Error(1)
}

// MockEntityHost is a mock type for the EntityHost interface
type MockEntityHost struct {
	mock.Mock
}

func (m *MockEntityHost) PublishEntities(ctx context.Context, entities []entity.Entity) error {
	args := m.Called(ctx, entities)
	return args.Error(0)
}

func (m *MockEntityHost) PublishState(ctx context.Context, e entity.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntityHost) RemoveEntity(ctx context.Context, uniqueID string) error {
	args := m.Called(ctx, uniqueID)
	return args.Error(0)
}

// MockNotifier is a mock type for the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) CreateNotification(ctx context.Context, n ports.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockEventBus is a mock type for the EventBus interface
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Fire(ctx context.Context, eventType string, data map[string]any) {
	m.Called(ctx, eventType, data)
}
