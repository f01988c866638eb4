package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/harvest-estate/gateway/models"
	"github.com/harvest-estate/gateway/money"
	"github.com/harvest-estate/gateway/storage"
	"github.com/harvest-estate/gateway/views"
)

// Workflow defaults applied when the caller omits optional fields.
const (
	DefaultAssetType    = "CSDN"
	DefaultJurisdiction = "US-DE-TRUST"
	DefaultBandRegion   = "US-DE"
	DefaultProvider     = "Matriarch"
	DefaultTokenSymbol  = "HRVST"
	DefaultDesk         = "Kiiantu"
	DefaultTenorDays    = 90
	DefaultPolicyFloor  = 0.85
)

// LedgerService is the asset lifecycle engine. Every operation runs inside
// one store transaction, appends exactly one audit entry for each mutation,
// and returns the projected result.
type LedgerService struct {
	store   storage.Txer
	gateway RedemptionGateway
	log     zerolog.Logger
}

// NewLedgerService wires the engine to its store and redemption gateway.
func NewLedgerService(store storage.Txer, gateway RedemptionGateway, log zerolog.Logger) *LedgerService {
	return &LedgerService{store: store, gateway: gateway, log: log}
}

// AssetResult carries the projected asset after an operation.
type AssetResult struct {
	Asset views.AssetView
}

// TxResult carries the projected asset and the ledger transaction an
// operation recorded.
type TxResult struct {
	Asset       views.AssetView
	Transaction views.TransactionView
}

// RedeemResult carries the raw se7en response body and its status code.
type RedeemResult struct {
	Body       map[string]any
	StatusCode int
}

// VerifyResult carries an attestation and its owning asset.
type VerifyResult struct {
	Attestation views.AffidavitView
	Asset       views.AssetView
}

// IntakeInput is the intake request. ValuationUSD is the loosely-typed
// payload value; absence means zero.
type IntakeInput struct {
	ExternalID   string
	Name         string
	AssetType    string
	Jurisdiction string
	ValuationUSD any
}

// Intake registers or re-registers an asset. The asset is upserted by
// external id: first sight creates it as VERIFIED, repeat calls overwrite
// descriptive and valuation fields and reset the status to VERIFIED.
func (s *LedgerService) Intake(ctx context.Context, in IntakeInput) (*AssetResult, error) {
	if in.ExternalID == "" || in.Name == "" {
		return nil, &ValidationError{Code: CodeMissingFields}
	}

	assetType := models.AssetType(strings.ToUpper(defaultString(in.AssetType, DefaultAssetType)))
	if !assetType.Valid() {
		return nil, &ValidationError{Code: CodeInvalidAssetType}
	}
	jurisdiction := defaultString(in.Jurisdiction, DefaultJurisdiction)

	valuation, err := money.ParseOrZero(in.ValuationUSD)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}

	var result *AssetResult
	err = s.store.WithTx(ctx, func(l storage.Ledger) error {
		asset, err := l.AssetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return err
		}

		if asset == nil {
			asset = &models.Asset{
				ExternalID:   in.ExternalID,
				Name:         in.Name,
				AssetType:    assetType,
				Jurisdiction: jurisdiction,
				ValuationUSD: valuation,
				Status:       models.StatusVerified,
			}
			if err := l.InsertAsset(ctx, asset); err != nil {
				return err
			}
		} else {
			asset.Name = in.Name
			asset.AssetType = assetType
			asset.Jurisdiction = jurisdiction
			asset.ValuationUSD = valuation
			asset.Status = models.StatusVerified
			if err := l.UpdateAsset(ctx, asset); err != nil {
				return err
			}
		}

		if err := s.audit(ctx, l, asset, models.RoleLaw,
			fmt.Sprintf("Intake verified for %s", asset.Name),
			models.JSONMap{"valuationUsd": money.Format(asset.ValuationUSD)},
		); err != nil {
			return err
		}

		view, err := s.assetView(ctx, l, *asset)
		if err != nil {
			return err
		}
		result = &AssetResult{Asset: view}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InsuranceInput is the insurance request. Multiplier and CoverageUSD are
// required; Floor and Terms only shape the stored policy document.
type InsuranceInput struct {
	ExternalID   string
	Multiplier   any
	CoverageUSD  any
	Jurisdiction string
	Provider     string
	Floor        any
	Terms        map[string]any
}

// ApplyInsurance upserts the asset's insurance band for the provider and
// moves the asset to INSURED.
func (s *LedgerService) ApplyInsurance(ctx context.Context, in InsuranceInput) (*AssetResult, error) {
	if in.ExternalID == "" || in.Multiplier == nil || in.CoverageUSD == nil {
		return nil, &ValidationError{Code: CodeMissingFields}
	}

	jurisdiction := defaultString(in.Jurisdiction, DefaultBandRegion)
	provider := defaultString(in.Provider, DefaultProvider)
	floor := in.Floor
	if floor == nil {
		floor = DefaultPolicyFloor
	}

	multiplier, err := money.Parse(in.Multiplier)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}
	coverage, err := money.Parse(in.CoverageUSD)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}

	// Required keys first, caller terms spread second: terms may override
	// the required keys in the stored policy document while the typed
	// columns keep the caller's original values. Product decision carried
	// over from the existing workflow.
	policy := map[string]any{
		"jurisdiction": jurisdiction,
		"multiplier":   in.Multiplier,
		"coverageUsd":  in.CoverageUSD,
		"floor":        floor,
	}
	for k, v := range in.Terms {
		policy[k] = v
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return nil, fmt.Errorf("marshal policy document: %w", err)
	}

	var result *AssetResult
	err = s.store.WithTx(ctx, func(l storage.Ledger) error {
		asset, err := l.AssetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return err
		}
		if asset == nil {
			return &NotFoundError{Code: CodeAssetNotFound}
		}

		band, err := l.BandByProvider(ctx, asset.ID, provider)
		if err != nil {
			return err
		}
		if band == nil {
			band = &models.InsuranceBand{
				AssetID:     asset.ID,
				Provider:    provider,
				Multiplier:  multiplier,
				CoverageUSD: coverage,
				PolicyJSON:  string(policyJSON),
			}
			if err := l.InsertBand(ctx, band); err != nil {
				return err
			}
		} else {
			band.Multiplier = multiplier
			band.CoverageUSD = coverage
			band.PolicyJSON = string(policyJSON)
			if err := l.UpdateBand(ctx, band); err != nil {
				return err
			}
		}

		asset.Status = models.StatusInsured
		if err := l.UpdateAsset(ctx, asset); err != nil {
			return err
		}

		if err := s.audit(ctx, l, asset, models.RoleInsurance,
			fmt.Sprintf("Insurance applied to %s at %vx", asset.Name, in.Multiplier),
			models.JSONMap{"coverageUsd": fmt.Sprint(in.CoverageUSD), "jurisdiction": jurisdiction},
		); err != nil {
			return err
		}

		view, err := s.assetView(ctx, l, *asset)
		if err != nil {
			return err
		}
		result = &AssetResult{Asset: view}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MintInput is the mint request. PolicyFloor defaults to NavPerToken and
// TokenSymbol to the house symbol.
type MintInput struct {
	ExternalID  string
	Quantity    any
	NavPerToken any
	PolicyFloor any
	TokenSymbol string
}

// Mint upserts the issuance for (asset, symbol), stamps it with the
// deterministic content hash of the mint parameters, records a MINT
// transaction and moves the asset to ISSUED.
func (s *LedgerService) Mint(ctx context.Context, in MintInput) (*TxResult, error) {
	if in.ExternalID == "" || in.Quantity == nil || in.NavPerToken == nil {
		return nil, &ValidationError{Code: CodeMissingFields}
	}

	policyFloor := in.PolicyFloor
	if policyFloor == nil {
		policyFloor = in.NavPerToken
	}
	tokenSymbol := defaultString(in.TokenSymbol, DefaultTokenSymbol)

	quantity, err := money.Parse(in.Quantity)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}
	nav, err := money.Parse(in.NavPerToken)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}
	floor, err := money.Parse(policyFloor)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}

	txHash := mintFingerprint(in.ExternalID, in.Quantity, in.NavPerToken, policyFloor, tokenSymbol)

	var result *TxResult
	err = s.store.WithTx(ctx, func(l storage.Ledger) error {
		asset, err := l.AssetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return err
		}
		if asset == nil {
			return &NotFoundError{Code: CodeAssetNotFound}
		}

		issuance, err := l.IssuanceBySymbol(ctx, asset.ID, tokenSymbol)
		if err != nil {
			return err
		}
		if issuance == nil {
			issuance = &models.Issuance{
				AssetID:     asset.ID,
				TokenSymbol: tokenSymbol,
				Quantity:    quantity,
				NavPerToken: nav,
				PolicyFloor: floor,
				TxHash:      txHash,
			}
			if err := l.InsertIssuance(ctx, issuance); err != nil {
				return err
			}
		} else {
			issuance.Quantity = quantity
			issuance.NavPerToken = nav
			issuance.PolicyFloor = floor
			issuance.TxHash = txHash
			if err := l.UpdateIssuance(ctx, issuance); err != nil {
				return err
			}
		}

		asset.Status = models.StatusIssued
		if err := l.UpdateAsset(ctx, asset); err != nil {
			return err
		}

		entry := &models.Transaction{
			AssetID:    &asset.ID,
			IssuanceID: &issuance.ID,
			Type:       models.TxMint,
			AmountUSD:  quantity,
			Metadata: models.JSONMap{
				"navPerToken": fmt.Sprint(in.NavPerToken),
				"policyFloor": fmt.Sprint(policyFloor),
				"txHash":      txHash,
			},
		}
		if err := l.InsertTransaction(ctx, entry); err != nil {
			return err
		}

		if err := s.audit(ctx, l, asset, models.RoleTreasury,
			fmt.Sprintf("%v %s tokens minted for %s", in.Quantity, tokenSymbol, asset.Name),
			models.JSONMap{"navPerToken": fmt.Sprint(in.NavPerToken), "txHash": txHash},
		); err != nil {
			return err
		}

		view, err := s.assetView(ctx, l, *asset)
		if err != nil {
			return err
		}
		result = &TxResult{Asset: view, Transaction: views.Transaction(*entry)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CirculateInput is the circulation request.
type CirculateInput struct {
	ExternalID string
	AmountUSD  any
	TenorDays  any
	Desk       string
}

// Circulate records a CIRCULATION transaction against the asset's most
// recent issuance (when one exists) and moves the asset to CIRCULATING.
func (s *LedgerService) Circulate(ctx context.Context, in CirculateInput) (*TxResult, error) {
	if in.ExternalID == "" || in.AmountUSD == nil {
		return nil, &ValidationError{Code: CodeMissingFields}
	}

	tenorDays := in.TenorDays
	if tenorDays == nil {
		tenorDays = DefaultTenorDays
	}
	desk := defaultString(in.Desk, DefaultDesk)

	amount, err := money.Parse(in.AmountUSD)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
	}

	var result *TxResult
	err = s.store.WithTx(ctx, func(l storage.Ledger) error {
		asset, err := l.AssetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return err
		}
		if asset == nil {
			return &NotFoundError{Code: CodeAssetNotFound}
		}

		issuance, err := l.LatestIssuance(ctx, asset.ID)
		if err != nil {
			return err
		}

		entry := &models.Transaction{
			AssetID:   &asset.ID,
			Type:      models.TxCirculation,
			AmountUSD: amount,
			Metadata:  models.JSONMap{"desk": desk, "tenorDays": tenorDays},
		}
		if issuance != nil {
			entry.IssuanceID = &issuance.ID
		}
		if err := l.InsertTransaction(ctx, entry); err != nil {
			return err
		}

		asset.Status = models.StatusCirculating
		if err := l.UpdateAsset(ctx, asset); err != nil {
			return err
		}

		if err := s.audit(ctx, l, asset, models.RoleOps,
			fmt.Sprintf("Liquidity circulated via %s for %s", desk, asset.Name),
			models.JSONMap{"amountUsd": fmt.Sprint(in.AmountUSD), "tenorDays": tenorDays},
		); err != nil {
			return err
		}

		view, err := s.assetView(ctx, l, *asset)
		if err != nil {
			return err
		}
		result = &TxResult{Asset: view, Transaction: views.Transaction(*entry)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RedeemInput is the redemption request.
type RedeemInput struct {
	ExternalID string
	HolderID   string
	Tokens     any
}

// Redeem settles a redemption through the se7en gateway, then records the
// outcome locally. The gateway is called before any local write, so a
// transport failure cannot leave partial state. The asset moves to REDEEMED
// only when the remote response reports success; an unknown asset is
// tolerated silently and the remote response is still returned verbatim.
func (s *LedgerService) Redeem(ctx context.Context, in RedeemInput) (*RedeemResult, error) {
	if in.ExternalID == "" || in.HolderID == "" || falsy(in.Tokens) {
		return nil, &ValidationError{Code: CodeMissingFields}
	}

	body, statusCode, err := s.gateway.Redeem(ctx, in.HolderID, in.Tokens)
	if err != nil {
		return nil, err
	}
	remoteOK := body["ok"] == true

	err = s.store.WithTx(ctx, func(l storage.Ledger) error {
		asset, err := l.AssetByExternalID(ctx, in.ExternalID)
		if err != nil {
			return err
		}
		if asset == nil {
			// The remote settlement already happened; tolerate the unknown
			// asset and return the response untouched.
			s.log.Warn().Str("externalId", in.ExternalID).Msg("redemption recorded without local asset")
			return nil
		}

		issuance, err := l.LatestIssuance(ctx, asset.ID)
		if err != nil {
			return err
		}

		amount, err := money.Parse(in.Tokens)
		if err != nil {
			return &ValidationError{Code: CodeInvalidAmount, Detail: err.Error()}
		}

		entry := &models.Transaction{
			AssetID:   &asset.ID,
			Type:      models.TxRedemption,
			AmountUSD: amount,
			Metadata:  models.JSONMap{"holderId": in.HolderID, "status": body["ok"]},
		}
		if issuance != nil {
			entry.IssuanceID = &issuance.ID
		}
		if err := l.InsertTransaction(ctx, entry); err != nil {
			return err
		}

		if remoteOK {
			asset.Status = models.StatusRedeemed
			if err := l.UpdateAsset(ctx, asset); err != nil {
				return err
			}
		}

		return s.audit(ctx, l, asset, models.RoleOracle,
			fmt.Sprintf("Redemption processed for %s", asset.Name),
			models.JSONMap{"holderId": in.HolderID, "tokens": in.Tokens},
		)
	})
	if err != nil {
		return nil, err
	}

	body["source"] = "se7en"
	return &RedeemResult{Body: body, StatusCode: statusCode}, nil
}

// Verify looks up an attestation by hash and returns it with its owning
// asset.
func (s *LedgerService) Verify(ctx context.Context, attestationHash string) (*VerifyResult, error) {
	var result *VerifyResult
	err := s.store.WithTx(ctx, func(l storage.Ledger) error {
		affidavit, err := l.AffidavitByHash(ctx, attestationHash)
		if err != nil {
			return err
		}
		if affidavit == nil {
			return &NotFoundError{Code: CodeAffidavitMissing}
		}

		asset, err := l.AssetByID(ctx, affidavit.AssetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return &NotFoundError{Code: CodeAssetNotFound}
		}

		view, err := s.assetView(ctx, l, *asset)
		if err != nil {
			return err
		}
		result = &VerifyResult{
			Attestation: views.Affidavit(*affidavit),
			Asset:       view,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// audit appends the workflow audit entry for a mutation, attributed to the
// first user holding the acting role. A missing user is not an error.
func (s *LedgerService) audit(ctx context.Context, l storage.Ledger, asset *models.Asset, role models.FiduciaryRole, message string, metadata models.JSONMap) error {
	user, err := l.UserByRole(ctx, role)
	if err != nil {
		return err
	}

	entry := &models.LedgerLog{
		Scope:    "workflow:" + strings.ToLower(asset.ExternalID),
		Level:    models.LevelInfo,
		Message:  message,
		Metadata: metadata,
	}
	if user != nil {
		entry.UserID = &user.ID
	}
	return l.InsertLedgerLog(ctx, entry)
}

// assetView loads the asset's child collections and projects the full view.
func (s *LedgerService) assetView(ctx context.Context, l storage.Ledger, asset models.Asset) (views.AssetView, error) {
	issuances, err := l.IssuancesForAsset(ctx, asset.ID)
	if err != nil {
		return views.AssetView{}, err
	}
	bands, err := l.BandsForAsset(ctx, asset.ID)
	if err != nil {
		return views.AssetView{}, err
	}
	affidavits, err := l.AffidavitsForAsset(ctx, asset.ID)
	if err != nil {
		return views.AssetView{}, err
	}
	return views.Asset(asset, issuances, bands, affidavits), nil
}

// mintFingerprint computes the deterministic keccak-256 hash over the
// colon-joined textual mint parameters. It is a local content fingerprint,
// not a chain-verified value, and is recomputed on every re-mint.
func mintFingerprint(externalID string, quantity, navPerToken, policyFloor any, tokenSymbol string) string {
	text := fmt.Sprintf("%s:%v:%v:%v:%s", externalID, quantity, navPerToken, policyFloor, tokenSymbol)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(text))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// falsy mirrors the permissive required-field check on redemption input:
// absent, empty and zero values all count as missing.
func falsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return err != nil || d.IsZero()
	case float64:
		return val == 0
	case int:
		return val == 0
	default:
		return false
	}
}
