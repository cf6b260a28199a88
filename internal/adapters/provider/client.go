// Package provider implements the HTTP adapter for the remote billing
// provider. The client holds the session token obtained at login and maps
// provider rejections onto the shared error sentinels.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/shopspring/decimal"
)

// rejection codes returned by the provider on 4xx responses.
const (
	codeIndicationsCount = "indications_count"
)

// Client talks to one provider account over HTTP.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Login opens a session and stores its token for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	var resp loginResponse
	err := c.post(ctx, "/auth/login", loginRequest{Username: c.username, Password: c.password}, &resp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	return nil
}

// Logout closes the session and drops the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/auth/logout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return err
}

func (c *Client) Accounts(ctx context.Context) ([]domain.Account, error) {
	var dtos []accountDTO
	if err := c.get(ctx, "/accounts", &dtos); err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, len(dtos))
	for i, d := range dtos {
		accounts[i] = d.toDomain()
	}
	return accounts, nil
}

func (c *Client) Meters(ctx context.Context, accountCode string) ([]domain.Meter, error) {
	var dtos []meterDTO
	path := fmt.Sprintf("/accounts/%s/meters", url.PathEscape(accountCode))
	if err := c.get(ctx, path, &dtos); err != nil {
		return nil, err
	}
	meters := make([]domain.Meter, 0, len(dtos))
	for _, d := range dtos {
		m, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding meter: %v", apperrors.ErrFetch, err)
		}
		meters = append(meters, m)
	}
	return meters, nil
}

// LastInvoice returns nil when the account has no invoice yet.
func (c *Client) LastInvoice(ctx context.Context, accountCode string) (*domain.Invoice, error) {
	var dto invoiceDTO
	path := fmt.Sprintf("/accounts/%s/invoices/last", url.PathEscape(accountCode))
	found, err := c.getOptional(ctx, path, &dto)
	if err != nil || !found {
		return nil, err
	}
	invoice, err := dto.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: decoding invoice: %v", apperrors.ErrFetch, err)
	}
	return invoice, nil
}

// LastPayment returns nil when the account has no payment history.
func (c *Client) LastPayment(ctx context.Context, accountCode string) (*domain.Payment, error) {
	var dto paymentDTO
	path := fmt.Sprintf("/accounts/%s/payments/last", url.PathEscape(accountCode))
	found, err := c.getOptional(ctx, path, &dto)
	if err != nil || !found {
		return nil, err
	}
	payment, err := dto.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: decoding payment: %v", apperrors.ErrFetch, err)
	}
	return payment, nil
}

func (c *Client) CurrentBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/accounts/%s/balance", url.PathEscape(accountCode))
	if err := c.get(ctx, path, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

func (c *Client) RemainingDays(ctx context.Context, accountCode string) (int, error) {
	var resp remainingDaysResponse
	path := fmt.Sprintf("/accounts/%s/remaining-days", url.PathEscape(accountCode))
	if err := c.get(ctx, path, &resp); err != nil {
		return 0, err
	}
	return resp.RemainingDays, nil
}

func (c *Client) SubmitIndications(ctx context.Context, meterCode string, values []int64, opts ports.SubmitOptions) (string, error) {
	var resp submitResponse
	path := fmt.Sprintf("/meters/%s/indications", url.PathEscape(meterCode))
	err := c.post(ctx, path, submitRequest{
		Indications:       values,
		IgnorePeriod:      opts.IgnorePeriod,
		IgnoreIndications: opts.IgnoreIndications,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Comment, nil
}

func (c *Client) CalculateCharge(ctx context.Context, meterCode string, values []int64, opts ports.SubmitOptions) (*domain.ChargeCalculation, error) {
	var resp calculateResponse
	path := fmt.Sprintf("/meters/%s/calculate", url.PathEscape(meterCode))
	err := c.post(ctx, path, submitRequest{
		Indications:       values,
		IgnorePeriod:      opts.IgnorePeriod,
		IgnoreIndications: opts.IgnoreIndications,
	}, &resp)
	if err != nil {
		return nil, err
	}
	calculation, err := resp.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: decoding calculation: %v", apperrors.ErrProvider, err)
	}
	return calculation, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	_, err = c.do(req, result, false)
	return err
}

// getOptional is get with 404 treated as "no such resource" instead of an
// error. It reports whether the resource was found.
func (c *Client) getOptional(ctx context.Context, path string, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	status, err := c.do(req, result, true)
	if err != nil {
		return false, err
	}
	return status != http.StatusNotFound, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, result, false)
	return err
}

// do executes the request with the session token attached and decodes the
// JSON response. When allowNotFound is set a 404 is reported through the
// returned status instead of an error.
func (c *Client) do(req *http.Request, result any, allowNotFound bool) (int, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", apperrors.ErrFetch, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if allowNotFound && resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, c.apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decoding response from %s: %v", apperrors.ErrFetch, req.URL.Path, err)
		}
	}
	return resp.StatusCode, nil
}

// apiError maps an error response onto the shared sentinels.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
		apiErr.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case apiErr.Code == codeIndicationsCount:
		return fmt.Errorf("%w: %s", apperrors.ErrIndicationsCount, apiErr.Error)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", apperrors.ErrAuthentication, apiErr.Error)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", apperrors.ErrProvider, apiErr.Error)
	default:
		return fmt.Errorf("%w: provider returned status %d: %s", apperrors.ErrFetch, resp.StatusCode, apiErr.Error)
	}
}

var _ ports.AccountProvider = (*Client)(nil)
