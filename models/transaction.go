package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels ledger entries by workflow step.
type TransactionType string

const (
	TxIntake           TransactionType = "INTAKE"
	TxMint             TransactionType = "MINT"
	TxInsurancePremium TransactionType = "INSURANCE_PREMIUM"
	TxNavUpdate        TransactionType = "NAV_UPDATE"
	TxRedemption       TransactionType = "REDEMPTION"
	TxCirculation      TransactionType = "CIRCULATION"
)

// Transaction is an immutable ledger entry. It optionally references the
// asset and issuance it was recorded against; entries are never mutated.
type Transaction struct {
	ID         int64           `db:"id" json:"id"`
	AssetID    *int64          `db:"asset_id" json:"asset_id"`
	IssuanceID *int64          `db:"issuance_id" json:"issuance_id"`
	Type       TransactionType `db:"type" json:"type"`
	AmountUSD  decimal.Decimal `db:"amount_usd" json:"amount_usd"`
	Metadata   JSONMap         `db:"metadata" json:"metadata"`
	OccurredAt time.Time       `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
