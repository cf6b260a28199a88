package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/enersync/utility_sync_app/internal/adapters/provider"
	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	server *httptest.Server
	mux    *http.ServeMux
	client *provider.Client
}

func (suite *ClientTestSuite) SetupTest() {
	suite.mux = http.NewServeMux()
	suite.server = httptest.NewServer(suite.mux)
	suite.client = provider.NewClient(config.ProviderConfig{
		BaseURL:  suite.server.URL,
		Username: "user@example.com",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *ClientTestSuite) login() {
	suite.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		suite.Equal("user@example.com", req["username"])
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	})
	suite.Require().NoError(suite.client.Login(context.Background()))
}

func (suite *ClientTestSuite) TestLogin_TokenAttachedToSubsequentCalls() {
	suite.login()

	suite.mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("Bearer session-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]any{{
			"service_id":    101,
			"account_code":  "1234567890",
			"provider_name": "Mosenergosbyt",
			"service_name":  "Electricity supply",
			"service_type":  "electricity",
		}})
	})

	accounts, err := suite.client.Accounts(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(accounts, 1)
	suite.Equal(int64(101), accounts[0].ServiceID)
	suite.Equal(domain.ServiceElectricity, accounts[0].ServiceType)
}

func (suite *ClientTestSuite) TestMeters_DecodesVariants() {
	suite.login()

	suite.mux.HandleFunc("/accounts/1234/meters", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"kind":                "electricity",
				"meter_code":          "EM-1",
				"account_code":        "1234",
				"remaining_days":      7,
				"install_date":        "2019-03-15",
				"submit_period_start": "2025-06-15",
				"submit_period_end":   "2025-06-26",
				"last_indications":    []int64{100, 50},
			},
			{
				"kind":         "generic",
				"meter_code":   "GM-1",
				"account_code": "1234",
				"readings": map[string]any{
					"cold_water": map[string]any{"name": "Cold water", "value": "33", "cost": "42.5", "unit": "m3"},
				},
			},
		})
	})

	meters, err := suite.client.Meters(context.Background(), "1234")
	suite.Require().NoError(err)
	suite.Require().Len(meters, 2)

	em, ok := meters[0].(*domain.ElectricityMeter)
	suite.Require().True(ok)
	suite.Equal([]int64{100, 50}, em.LastIndications)
	suite.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), em.PeriodStart)

	gm, ok := meters[1].(*domain.GenericMeter)
	suite.Require().True(ok)
	suite.Equal("Cold water", gm.Readings["cold_water"].Name)
	suite.Equal("33", gm.Readings["cold_water"].Value.String())
}

func (suite *ClientTestSuite) TestLastInvoice_NotFoundMeansNoInvoice() {
	suite.login()

	suite.mux.HandleFunc("/accounts/1234/invoices/last", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no invoice", http.StatusNotFound)
	})

	invoice, err := suite.client.LastInvoice(context.Background(), "1234")
	suite.Require().NoError(err)
	suite.Nil(invoice)
}

func (suite *ClientTestSuite) TestSubmitIndications_CountRejection() {
	suite.login()

	suite.mux.HandleFunc("/meters/EM-1/indications", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "expected 2 values, got 3",
			"code":  "indications_count",
		})
	})

	_, err := suite.client.SubmitIndications(context.Background(), "EM-1", []int64{1, 2, 3}, ports.SubmitOptions{})
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrIndicationsCount)
}

func (suite *ClientTestSuite) TestSubmitIndications_Success() {
	suite.login()

	suite.mux.HandleFunc("/meters/EM-1/indications", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		suite.Equal(true, req["ignore_period"])
		json.NewEncoder(w).Encode(map[string]string{"comment": "accepted"})
	})

	comment, err := suite.client.SubmitIndications(context.Background(), "EM-1", []int64{130, 60}, ports.SubmitOptions{IgnorePeriod: true})
	suite.Require().NoError(err)
	suite.Equal("accepted", comment)
}

func (suite *ClientTestSuite) TestCalculateCharge() {
	suite.login()

	suite.mux.HandleFunc("/meters/EM-1/calculate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"period":      "2025-06-01",
			"charged":     "245.3",
			"indications": map[string]int64{"t1": 130},
			"comment":     "calculated",
		})
	})

	calc, err := suite.client.CalculateCharge(context.Background(), "EM-1", []int64{130}, ports.SubmitOptions{})
	suite.Require().NoError(err)
	suite.Equal("245.3", calc.Charged.String())
	suite.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), calc.Period)
}

func (suite *ClientTestSuite) TestSessionExpiry_MapsToAuthenticationError() {
	suite.login()

	suite.mux.HandleFunc("/accounts/1234/balance", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
	})

	_, err := suite.client.CurrentBalance(context.Background(), "1234")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAuthentication)
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
