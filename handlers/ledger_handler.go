package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/harvest-estate/gateway/services"
)

// LedgerAPI is the slice of the lifecycle engine the HTTP layer consumes.
type LedgerAPI interface {
	Intake(ctx context.Context, in services.IntakeInput) (*services.AssetResult, error)
	ApplyInsurance(ctx context.Context, in services.InsuranceInput) (*services.AssetResult, error)
	Mint(ctx context.Context, in services.MintInput) (*services.TxResult, error)
	Circulate(ctx context.Context, in services.CirculateInput) (*services.TxResult, error)
	Redeem(ctx context.Context, in services.RedeemInput) (*services.RedeemResult, error)
	Verify(ctx context.Context, attestationHash string) (*services.VerifyResult, error)
}

// LedgerHandler serves the asset lifecycle routes.
type LedgerHandler struct {
	Service LedgerAPI
	Mode    string
	log     zerolog.Logger
}

// NewLedgerHandler creates the handler set for the lifecycle routes.
func NewLedgerHandler(service LedgerAPI, mode string, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{Service: service, Mode: mode, log: log}
}

// Routes mounts every lifecycle route on r.
func (h *LedgerHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/intake", h.Intake)
	r.Post("/insurance", h.ApplyInsurance)
	r.Post("/mint", h.Mint)
	r.Post("/circulate", h.Circulate)
	r.Post("/redeem", h.Redeem)
	r.Get("/verify/{hash}", h.Verify)
}

// Health reports liveness and the configured estate mode.
// GET /health
func (h *LedgerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "api-gateway",
		"mode":    h.Mode,
	})
}

// Intake registers or re-registers an asset.
// POST /intake
func (h *LedgerHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID   string `json:"externalId"`
		Name         string `json:"name"`
		AssetType    string `json:"assetType"`
		Jurisdiction string `json:"jurisdiction"`
		ValuationUSD any    `json:"valuationUsd"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	result, err := h.Service.Intake(r.Context(), services.IntakeInput{
		ExternalID:   req.ExternalID,
		Name:         req.Name,
		AssetType:    req.AssetType,
		Jurisdiction: req.Jurisdiction,
		ValuationUSD: req.ValuationUSD,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "asset": result.Asset})
}

// ApplyInsurance upserts the asset's insurance band.
// POST /insurance
func (h *LedgerHandler) ApplyInsurance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID   string         `json:"externalId"`
		Multiplier   any            `json:"multiplier"`
		CoverageUSD  any            `json:"coverageUsd"`
		Jurisdiction string         `json:"jurisdiction"`
		Provider     string         `json:"provider"`
		Floor        any            `json:"floor"`
		Terms        map[string]any `json:"terms"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	result, err := h.Service.ApplyInsurance(r.Context(), services.InsuranceInput{
		ExternalID:   req.ExternalID,
		Multiplier:   req.Multiplier,
		CoverageUSD:  req.CoverageUSD,
		Jurisdiction: req.Jurisdiction,
		Provider:     req.Provider,
		Floor:        req.Floor,
		Terms:        req.Terms,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "asset": result.Asset})
}

// Mint issues tokens against an asset.
// POST /mint
func (h *LedgerHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID  string `json:"externalId"`
		Quantity    any    `json:"quantity"`
		NavPerToken any    `json:"navPerToken"`
		PolicyFloor any    `json:"policyFloor"`
		TokenSymbol string `json:"tokenSymbol"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	result, err := h.Service.Mint(r.Context(), services.MintInput{
		ExternalID:  req.ExternalID,
		Quantity:    req.Quantity,
		NavPerToken: req.NavPerToken,
		PolicyFloor: req.PolicyFloor,
		TokenSymbol: req.TokenSymbol,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"asset":       result.Asset,
		"transaction": result.Transaction,
	})
}

// Circulate records a liquidity circulation.
// POST /circulate
func (h *LedgerHandler) Circulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID string `json:"externalId"`
		AmountUSD  any    `json:"amountUsd"`
		TenorDays  any    `json:"tenorDays"`
		Desk       string `json:"desk"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	result, err := h.Service.Circulate(r.Context(), services.CirculateInput{
		ExternalID: req.ExternalID,
		AmountUSD:  req.AmountUSD,
		TenorDays:  req.TenorDays,
		Desk:       req.Desk,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"asset":       result.Asset,
		"transaction": result.Transaction,
	})
}

// Redeem settles a redemption through se7en and relays the remote response
// verbatim, including its status code.
// POST /redeem
func (h *LedgerHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID string `json:"externalId"`
		HolderID   string `json:"holderId"`
		Tokens     any    `json:"tokens"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid_json"})
		return
	}

	result, err := h.Service.Redeem(r.Context(), services.RedeemInput{
		ExternalID: req.ExternalID,
		HolderID:   req.HolderID,
		Tokens:     req.Tokens,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, result.StatusCode, result.Body)
}

// Verify resolves an attestation by hash.
// GET /verify/{hash}
func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	attestationHash := chi.URLParam(r, "hash")

	result, err := h.Service.Verify(r.Context(), attestationHash)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"attestation": result.Attestation,
		"asset":       result.Asset,
	})
}
