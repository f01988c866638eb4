package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies the legal wrapper the asset is registered under.
type AssetType string

const (
	AssetTypeCSDN AssetType = "CSDN"
	AssetTypeSDN  AssetType = "SDN"
)

// Valid reports whether the type is one of the registered classifications.
func (t AssetType) Valid() bool {
	return t == AssetTypeCSDN || t == AssetTypeSDN
}

// AssetStatus tracks the asset through the tokenization workflow.
type AssetStatus string

const (
	StatusIntake      AssetStatus = "INTAKE"
	StatusVerified    AssetStatus = "VERIFIED"
	StatusInsured     AssetStatus = "INSURED"
	StatusIssued      AssetStatus = "ISSUED"
	StatusCirculating AssetStatus = "CIRCULATING"
	StatusRedeemed    AssetStatus = "REDEEMED"
)

// Asset is the real-world item being tokenized. ExternalID is the sole
// handle callers use for lifecycle operations and is unique across assets.
type Asset struct {
	ID           int64           `db:"id" json:"id"`
	ExternalID   string          `db:"external_id" json:"external_id"`
	Name         string          `db:"name" json:"name"`
	AssetType    AssetType       `db:"asset_type" json:"asset_type"`
	Jurisdiction string          `db:"jurisdiction" json:"jurisdiction"`
	ValuationUSD decimal.Decimal `db:"valuation_usd" json:"valuation_usd"`
	Status       AssetStatus     `db:"status" json:"status"`
	IntakeAt     time.Time       `db:"intake_at" json:"intake_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
