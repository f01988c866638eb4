package views_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvest-estate/gateway/models"
	"github.com/harvest-estate/gateway/views"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAssetProjection(t *testing.T) {
	intakeAt := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	asset := models.Asset{
		ID:           1,
		ExternalID:   "HAS-ALPHA",
		Name:         "Haskins Estate",
		AssetType:    models.AssetTypeCSDN,
		Jurisdiction: "US-DE-TRUST",
		ValuationUSD: dec(t, "875000"),
		Status:       models.StatusCirculating,
		IntakeAt:     intakeAt,
		UpdatedAt:    intakeAt,
	}
	issuances := []models.Issuance{{
		ID: 2, AssetID: 1, TokenSymbol: "HRVST",
		Quantity:    dec(t, "380038.75"),
		NavPerToken: dec(t, "0.91"),
		PolicyFloor: dec(t, "0.85"),
		TxHash:      "0xHASKINSINTAKE",
		IssuedAt:    intakeAt,
	}}
	bands := []models.InsuranceBand{{
		ID: 3, AssetID: 1, Provider: "Matriarch",
		Multiplier:  dec(t, "3.5"),
		CoverageUSD: dec(t, "3062500"),
		PolicyJSON:  `{"jurisdiction":"US-DE"}`,
		EffectiveAt: intakeAt,
	}}

	view := views.Asset(asset, issuances, bands, nil)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "HAS-ALPHA", got["externalId"])
	assert.Equal(t, "875000", got["valuationUsd"], "decimals serialize as strings")
	assert.Equal(t, "CIRCULATING", got["status"])
	assert.Equal(t, "2024-07-01T12:00:00Z", got["intakeAt"])

	issuance := got["issuances"].([]any)[0].(map[string]any)
	assert.Equal(t, "380038.75", issuance["quantity"])
	assert.Equal(t, "0.91", issuance["navPerToken"])
	assert.Equal(t, "0xHASKINSINTAKE", issuance["txHash"])

	band := got["insurance"].([]any)[0].(map[string]any)
	assert.Equal(t, "3.5", band["multiplier"])
	assert.Equal(t, `{"jurisdiction":"US-DE"}`, band["policy"], "the policy document passes through verbatim")

	affidavits, ok := got["affidavits"].([]any)
	require.True(t, ok, "empty child collections serialize as arrays, not null")
	assert.Empty(t, affidavits)
}

func TestZeroTimestampSerializesAsNull(t *testing.T) {
	view := views.Transaction(models.Transaction{
		ID:        1,
		Type:      models.TxMint,
		AmountUSD: dec(t, "1000"),
	})

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Nil(t, got["occurredAt"])
	assert.Nil(t, got["assetId"])
	assert.Equal(t, "1000", got["amountUsd"])
	assert.Equal(t, "MINT", got["type"])
}
