package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuance records tokens minted against an asset under a symbol. At most
// one issuance exists per (asset, symbol); re-minting updates in place.
type Issuance struct {
	ID          int64           `db:"id" json:"id"`
	AssetID     int64           `db:"asset_id" json:"asset_id"`
	TokenSymbol string          `db:"token_symbol" json:"token_symbol"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	NavPerToken decimal.Decimal `db:"nav_per_token" json:"nav_per_token"`
	PolicyFloor decimal.Decimal `db:"policy_floor" json:"policy_floor"`
	TxHash      string          `db:"tx_hash" json:"tx_hash"`
	IssuedAt    time.Time       `db:"issued_at" json:"issued_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// InsuranceBand is a coverage policy attached to an asset, one per provider.
// PolicyJSON holds the merged policy document as serialized JSON.
type InsuranceBand struct {
	ID          int64           `db:"id" json:"id"`
	AssetID     int64           `db:"asset_id" json:"asset_id"`
	Provider    string          `db:"provider" json:"provider"`
	Multiplier  decimal.Decimal `db:"multiplier" json:"multiplier"`
	CoverageUSD decimal.Decimal `db:"coverage_usd" json:"coverage_usd"`
	PolicyJSON  string          `db:"policy_json" json:"policy_json"`
	EffectiveAt time.Time       `db:"effective_at" json:"effective_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
