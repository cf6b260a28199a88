package apperrors

import "errors"

// ErrAuthentication indicates that a provider session could not be established
// or refreshed. Together with a failed account listing it is the only error
// that aborts a whole reconciliation cycle.
var ErrAuthentication = errors.New("authentication failed")

// ErrFetch indicates a remote read (accounts, meters, invoices, balances)
// failed. Outside the account listing it is isolated to the affected resource.
var ErrFetch = errors.New("fetch failed")

// ErrMeterNotFound indicates that an indication request referenced a meter
// that is not present in any registered entity scope.
var ErrMeterNotFound = errors.New("meter not found")

// ErrUnsupported indicates that the resolved meter variant does not support
// the requested capability (submission or charge calculation).
var ErrUnsupported = errors.New("operation not supported by meter")

// ErrIndicationsCount indicates that the provider rejected the number of
// submitted indication values.
var ErrIndicationsCount = errors.New("indications count rejected")

// ErrProvider indicates a generic provider-side rejection of an operation.
var ErrProvider = errors.New("provider rejected operation")
