// Package ports defines the boundaries of the sync core: the remote billing
// provider on one side and the hosting entity/notification framework on the
// other. Context is included on every call that may suspend on I/O.
package ports

import (
	"context"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubmitOptions carries the caller-controlled flags of a submission or
// calculation request. IgnoreIndications is always false on the caller path;
// it exists because the provider API accepts it.
type SubmitOptions struct {
	IgnorePeriod      bool
	IgnoreIndications bool
}

// SessionProvider is the authentication slice of the provider.
type SessionProvider interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
}

// AccountProvider is the remote billing provider for one managed account.
// Implementations own all HTTP/session specifics; errors are reported
// through the apperrors sentinels (ErrFetch for reads, ErrIndicationsCount /
// ErrProvider for rejected operations).
type AccountProvider interface {
	SessionProvider

	// Accounts lists the managed account's service contracts in
	// provider-delivered order.
	Accounts(ctx context.Context) ([]domain.Account, error)
	// Meters lists the meters of one account.
	Meters(ctx context.Context, accountCode string) ([]domain.Meter, error)
	// LastInvoice returns the most recent invoice of one account, or nil
	// when the account has none.
	LastInvoice(ctx context.Context, accountCode string) (*domain.Invoice, error)

	// Per-account detail reads used during entity refresh.
	LastPayment(ctx context.Context, accountCode string) (*domain.Payment, error)
	CurrentBalance(ctx context.Context, accountCode string) (decimal.Decimal, error)
	RemainingDays(ctx context.Context, accountCode string) (int, error)

	// SubmitIndications pushes absolute meter readings and returns the
	// provider's confirmation comment.
	SubmitIndications(ctx context.Context, meterCode string, values []int64, opts SubmitOptions) (string, error)
	// CalculateCharge simulates a submission without committing it.
	CalculateCharge(ctx context.Context, meterCode string, values []int64, opts SubmitOptions) (*domain.ChargeCalculation, error)
}
