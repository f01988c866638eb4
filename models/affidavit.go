package models

import "time"

// Affidavit is an immutable attestation tied to an asset. Hash is globally
// unique and serves as the external verification key.
type Affidavit struct {
	ID           int64     `db:"id" json:"id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	Hash         string    `db:"hash" json:"hash"`
	Jurisdiction string    `db:"jurisdiction" json:"jurisdiction"`
	ClauseRef    string    `db:"clause_ref" json:"clause_ref"`
	IssuedBy     string    `db:"issued_by" json:"issued_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
