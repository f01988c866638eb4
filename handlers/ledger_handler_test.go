package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harvest-estate/gateway/handlers"
	"github.com/harvest-estate/gateway/services"
	"github.com/harvest-estate/gateway/views"
)

// MockLedgerAPI is a testify mock of the lifecycle engine.
type MockLedgerAPI struct {
	mock.Mock
}

func (m *MockLedgerAPI) Intake(_ context.Context, in services.IntakeInput) (*services.AssetResult, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*services.AssetResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerAPI) ApplyInsurance(_ context.Context, in services.InsuranceInput) (*services.AssetResult, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*services.AssetResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerAPI) Mint(_ context.Context, in services.MintInput) (*services.TxResult, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*services.TxResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerAPI) Circulate(_ context.Context, in services.CirculateInput) (*services.TxResult, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*services.TxResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerAPI) Redeem(_ context.Context, in services.RedeemInput) (*services.RedeemResult, error) {
	args := m.Called(in)
	if r := args.Get(0); r != nil {
		return r.(*services.RedeemResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerAPI) Verify(_ context.Context, attestationHash string) (*services.VerifyResult, error) {
	args := m.Called(attestationHash)
	if r := args.Get(0); r != nil {
		return r.(*services.VerifyResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(api handlers.LedgerAPI) http.Handler {
	h := handlers.NewLedgerHandler(api, "DEMO", zerolog.Nop())
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHealth(t *testing.T) {
	router := newRouter(new(MockLedgerAPI))
	rec, body := doJSON(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "api-gateway", body["service"])
	assert.Equal(t, "DEMO", body["mode"])
}

func TestIntakeHappyPath(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Intake", services.IntakeInput{
		ExternalID:   "AST-1",
		Name:         "Villa",
		ValuationUSD: json.Number("1000000"),
	}).Return(&services.AssetResult{Asset: views.AssetView{
		ID:         1,
		ExternalID: "AST-1",
		Name:       "Villa",
		Status:     "VERIFIED",
	}}, nil).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/intake",
		`{"externalId":"AST-1","name":"Villa","valuationUsd":1000000}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	asset := body["asset"].(map[string]any)
	assert.Equal(t, "AST-1", asset["externalId"])
	assert.Equal(t, "VERIFIED", asset["status"])
	api.AssertExpectations(t)
}

func TestIntakeRejectsMalformedJSON(t *testing.T) {
	router := newRouter(new(MockLedgerAPI))
	rec, body := doJSON(t, router, http.MethodPost, "/intake", `{"externalId":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", body["error"])
}

func TestValidationErrorMapsTo400(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("ApplyInsurance", mock.Anything).
		Return(nil, &services.ValidationError{Code: services.CodeMissingFields}).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/insurance", `{"externalId":"AST-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, services.CodeMissingFields, body["error"])
	api.AssertExpectations(t)
}

func TestNotFoundErrorMapsTo404(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Mint", mock.Anything).
		Return(nil, &services.NotFoundError{Code: services.CodeAssetNotFound}).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/mint",
		`{"externalId":"GHOST","quantity":1,"navPerToken":1}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, services.CodeAssetNotFound, body["error"])
	api.AssertExpectations(t)
}

func TestGatewayErrorMapsTo502(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Redeem", mock.Anything).
		Return(nil, &services.GatewayError{Err: errors.New("connection refused")}).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/redeem",
		`{"externalId":"AST-1","holderId":"holder-1","tokens":500}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, services.CodeSe7enUnreachable, body["error"])
	assert.Equal(t, "connection refused", body["detail"])
	api.AssertExpectations(t)
}

func TestRedeemRelaysRemoteStatusAndBody(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Redeem", services.RedeemInput{
		ExternalID: "AST-1",
		HolderID:   "holder-1",
		Tokens:     json.Number("500"),
	}).Return(&services.RedeemResult{
		Body:       map[string]any{"ok": false, "error": "insufficient_reserves", "source": "se7en"},
		StatusCode: http.StatusPaymentRequired,
	}, nil).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/redeem",
		`{"externalId":"AST-1","holderId":"holder-1","tokens":500}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "se7en", body["source"])
	api.AssertExpectations(t)
}

func TestMintReturnsAssetAndTransaction(t *testing.T) {
	issuanceID := int64(7)
	api := new(MockLedgerAPI)
	api.On("Mint", services.MintInput{
		ExternalID:  "AST-1",
		Quantity:    json.Number("1000"),
		NavPerToken: json.Number("2"),
	}).Return(&services.TxResult{
		Asset: views.AssetView{ExternalID: "AST-1", Status: "ISSUED"},
		Transaction: views.TransactionView{
			ID:         3,
			IssuanceID: &issuanceID,
			Type:       "MINT",
			AmountUSD:  "1000",
		},
	}, nil).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/mint",
		`{"externalId":"AST-1","quantity":1000,"navPerToken":2}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "MINT", tx["type"])
	assert.Equal(t, "1000", tx["amountUsd"])
	assert.Equal(t, float64(7), tx["issuanceId"])
	api.AssertExpectations(t)
}

func TestCirculatePassesDefaults(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Circulate", services.CirculateInput{
		ExternalID: "AST-1",
		AmountUSD:  json.Number("360000"),
		TenorDays:  json.Number("30"),
		Desk:       "Kiiantu",
	}).Return(&services.TxResult{
		Asset:       views.AssetView{ExternalID: "AST-1", Status: "CIRCULATING"},
		Transaction: views.TransactionView{Type: "CIRCULATION", AmountUSD: "360000"},
	}, nil).Once()

	router := newRouter(api)
	rec, _ := doJSON(t, router, http.MethodPost, "/circulate",
		`{"externalId":"AST-1","amountUsd":360000,"tenorDays":30,"desk":"Kiiantu"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	api.AssertExpectations(t)
}

func TestVerifyFoundAndMissing(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Verify", "abc123").Return(&services.VerifyResult{
		Attestation: views.AffidavitView{Hash: "abc123"},
		Asset:       views.AssetView{ExternalID: "AST-1"},
	}, nil).Once()
	api.On("Verify", "missing").
		Return(nil, &services.NotFoundError{Code: services.CodeAffidavitMissing}).Once()

	router := newRouter(api)

	rec, body := doJSON(t, router, http.MethodGet, "/verify/abc123", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	attestation := body["attestation"].(map[string]any)
	assert.Equal(t, "abc123", attestation["hash"])

	rec, body = doJSON(t, router, http.MethodGet, "/verify/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, services.CodeAffidavitMissing, body["error"])
	api.AssertExpectations(t)
}

func TestEmptyBodyDecodesToZeroRequest(t *testing.T) {
	api := new(MockLedgerAPI)
	api.On("Intake", services.IntakeInput{}).
		Return(nil, &services.ValidationError{Code: services.CodeMissingFields}).Once()

	router := newRouter(api)
	rec, body := doJSON(t, router, http.MethodPost, "/intake", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.CodeMissingFields, body["error"])
	api.AssertExpectations(t)
}
