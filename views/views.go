// Package views projects domain entities into their external JSON
// representation. Projections are pure: decimals become fixed-point
// strings, timestamps become RFC 3339 text or null, enums become their
// string values.
package views

import (
	"time"

	"github.com/harvest-estate/gateway/models"
	"github.com/harvest-estate/gateway/money"
)

// AssetView is the external representation of an asset with its children.
type AssetView struct {
	ID           int64           `json:"id"`
	ExternalID   string          `json:"externalId"`
	Name         string          `json:"name"`
	AssetType    string          `json:"assetType"`
	Jurisdiction string          `json:"jurisdiction"`
	ValuationUSD string          `json:"valuationUsd"`
	Status       string          `json:"status"`
	IntakeAt     *string         `json:"intakeAt"`
	UpdatedAt    *string         `json:"updatedAt"`
	Issuances    []IssuanceView  `json:"issuances"`
	Insurance    []InsuranceView `json:"insurance"`
	Affidavits   []AffidavitView `json:"affidavits"`
}

// IssuanceView is the external representation of an issuance.
type IssuanceView struct {
	ID          int64   `json:"id"`
	AssetID     int64   `json:"assetId"`
	TokenSymbol string  `json:"tokenSymbol"`
	Quantity    string  `json:"quantity"`
	NavPerToken string  `json:"navPerToken"`
	PolicyFloor string  `json:"policyFloor"`
	TxHash      string  `json:"txHash"`
	IssuedAt    *string `json:"issuedAt"`
}

// InsuranceView is the external representation of an insurance band. Policy
// carries the stored policy document verbatim as serialized JSON.
type InsuranceView struct {
	ID          int64   `json:"id"`
	AssetID     int64   `json:"assetId"`
	Provider    string  `json:"provider"`
	Multiplier  string  `json:"multiplier"`
	CoverageUSD string  `json:"coverageUsd"`
	Policy      string  `json:"policy"`
	EffectiveAt *string `json:"effectiveAt"`
}

// AffidavitView is the external representation of an affidavit.
type AffidavitView struct {
	ID           int64   `json:"id"`
	AssetID      int64   `json:"assetId"`
	Hash         string  `json:"hash"`
	Jurisdiction string  `json:"jurisdiction"`
	ClauseRef    string  `json:"clauseRef"`
	IssuedBy     string  `json:"issuedBy"`
	CreatedAt    *string `json:"createdAt"`
}

// TransactionView is the external representation of a ledger transaction.
type TransactionView struct {
	ID         int64          `json:"id"`
	AssetID    *int64         `json:"assetId"`
	IssuanceID *int64         `json:"issuanceId"`
	Type       string         `json:"type"`
	AmountUSD  string         `json:"amountUsd"`
	Metadata   models.JSONMap `json:"metadata"`
	OccurredAt *string        `json:"occurredAt"`
}

// Asset projects an asset and its child collections.
func Asset(asset models.Asset, issuances []models.Issuance, bands []models.InsuranceBand, affidavits []models.Affidavit) AssetView {
	view := AssetView{
		ID:           asset.ID,
		ExternalID:   asset.ExternalID,
		Name:         asset.Name,
		AssetType:    string(asset.AssetType),
		Jurisdiction: asset.Jurisdiction,
		ValuationUSD: money.Format(asset.ValuationUSD),
		Status:       string(asset.Status),
		IntakeAt:     timestamp(asset.IntakeAt),
		UpdatedAt:    timestamp(asset.UpdatedAt),
		Issuances:    make([]IssuanceView, 0, len(issuances)),
		Insurance:    make([]InsuranceView, 0, len(bands)),
		Affidavits:   make([]AffidavitView, 0, len(affidavits)),
	}
	for _, issuance := range issuances {
		view.Issuances = append(view.Issuances, Issuance(issuance))
	}
	for _, band := range bands {
		view.Insurance = append(view.Insurance, Insurance(band))
	}
	for _, affidavit := range affidavits {
		view.Affidavits = append(view.Affidavits, Affidavit(affidavit))
	}
	return view
}

// Issuance projects a single issuance.
func Issuance(issuance models.Issuance) IssuanceView {
	return IssuanceView{
		ID:          issuance.ID,
		AssetID:     issuance.AssetID,
		TokenSymbol: issuance.TokenSymbol,
		Quantity:    money.Format(issuance.Quantity),
		NavPerToken: money.Format(issuance.NavPerToken),
		PolicyFloor: money.Format(issuance.PolicyFloor),
		TxHash:      issuance.TxHash,
		IssuedAt:    timestamp(issuance.IssuedAt),
	}
}

// Insurance projects a single insurance band.
func Insurance(band models.InsuranceBand) InsuranceView {
	return InsuranceView{
		ID:          band.ID,
		AssetID:     band.AssetID,
		Provider:    band.Provider,
		Multiplier:  money.Format(band.Multiplier),
		CoverageUSD: money.Format(band.CoverageUSD),
		Policy:      band.PolicyJSON,
		EffectiveAt: timestamp(band.EffectiveAt),
	}
}

// Affidavit projects a single affidavit.
func Affidavit(affidavit models.Affidavit) AffidavitView {
	return AffidavitView{
		ID:           affidavit.ID,
		AssetID:      affidavit.AssetID,
		Hash:         affidavit.Hash,
		Jurisdiction: affidavit.Jurisdiction,
		ClauseRef:    affidavit.ClauseRef,
		IssuedBy:     affidavit.IssuedBy,
		CreatedAt:    timestamp(affidavit.CreatedAt),
	}
}

// Transaction projects a single ledger transaction.
func Transaction(tx models.Transaction) TransactionView {
	return TransactionView{
		ID:         tx.ID,
		AssetID:    tx.AssetID,
		IssuanceID: tx.IssuanceID,
		Type:       string(tx.Type),
		AmountUSD:  money.Format(tx.AmountUSD),
		Metadata:   tx.Metadata,
		OccurredAt: timestamp(tx.OccurredAt),
	}
}

func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
