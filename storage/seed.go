package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/harvest-estate/gateway/models"
)

// SeedDemo wipes the ledger tables and loads the demo estate fixtures: the
// seven fiduciary users, two assets mid-workflow with their insurance bands,
// issuances and affidavits, and the transaction history of the first asset.
func SeedDemo(ctx context.Context, store *Store) error {
	return store.WithTx(ctx, func(l Ledger) error {
		tx := l.(*txLedger).tx

		_, err := tx.ExecContext(ctx, `
			DELETE FROM ledger_logs;
			DELETE FROM affidavits;
			DELETE FROM transactions;
			DELETE FROM insurance_bands;
			DELETE FROM issuances;
			DELETE FROM assets;
			DELETE FROM users;`)
		if err != nil {
			return fmt.Errorf("wipe ledger tables: %w", err)
		}

		users := []struct {
			email, name string
			role        models.FiduciaryRole
		}{
			{"law@harvest.estate", "Althea Chambers", models.RoleLaw},
			{"cpa@harvest.estate", "Jonas Patel", models.RoleCPA},
			{"treasury@harvest.estate", "Vera Holt", models.RoleTreasury},
			{"insurance@harvest.estate", "Mara Kato", models.RoleInsurance},
			{"ops@harvest.estate", "Isa King", models.RoleOps},
			{"governance@harvest.estate", "Pax Everett", models.RoleGovernance},
			{"oracle@harvest.estate", "Eido Relay", models.RoleOracle},
		}
		for _, u := range users {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (email, display_name, role) VALUES ($1, $2, $3)`,
				u.email, u.name, u.role); err != nil {
				return fmt.Errorf("seed user %s: %w", u.email, err)
			}
		}

		haskins := &models.Asset{
			ExternalID:   "HAS-ALPHA",
			Name:         "Haskins Alpha Estate",
			AssetType:    models.AssetTypeCSDN,
			Jurisdiction: "US-DE-TRUST",
			ValuationUSD: decimal.RequireFromString("875000"),
			Status:       models.StatusCirculating,
		}
		if err := l.InsertAsset(ctx, haskins); err != nil {
			return err
		}

		beta := &models.Asset{
			ExternalID:   "MER-BETA",
			Name:         "Meridian Beta IP Trust",
			AssetType:    models.AssetTypeSDN,
			Jurisdiction: "US-CA-IP",
			ValuationUSD: decimal.RequireFromString("620000"),
			Status:       models.StatusInsured,
		}
		if err := l.InsertAsset(ctx, beta); err != nil {
			return err
		}

		if err := seedBand(ctx, l, haskins.ID, "3.5", "3062500", map[string]any{
			"jurisdiction":     "US-DE",
			"multiplier":       "3.5x",
			"coverageCurrency": "USD",
			"floor":            0.85,
		}); err != nil {
			return err
		}
		if err := seedBand(ctx, l, beta.ID, "2.8", "1736000", map[string]any{
			"jurisdiction":     "US-CA",
			"multiplier":       "2.8x",
			"coverageCurrency": "USD",
			"floor":            0.8,
		}); err != nil {
			return err
		}

		haskinsIssuance := &models.Issuance{
			AssetID:     haskins.ID,
			TokenSymbol: "HRVST",
			Quantity:    decimal.RequireFromString("380038.75"),
			NavPerToken: decimal.RequireFromString("0.91"),
			PolicyFloor: decimal.RequireFromString("0.85"),
			TxHash:      "0xHASKINSINTAKE",
		}
		if err := l.InsertIssuance(ctx, haskinsIssuance); err != nil {
			return err
		}
		if err := l.InsertIssuance(ctx, &models.Issuance{
			AssetID:     beta.ID,
			TokenSymbol: "HRVST",
			Quantity:    decimal.RequireFromString("248000.00"),
			NavPerToken: decimal.RequireFromString("0.88"),
			PolicyFloor: decimal.RequireFromString("0.80"),
			TxHash:      "0xMERIDIANINTAKE",
		}); err != nil {
			return err
		}

		affidavits := []struct {
			assetID   int64
			name, jur string
			clause    string
		}{
			{haskins.ID, "Haskins Alpha Estate", "US-DE", "EYEION-2024-ALPHA"},
			{beta.ID, "Meridian Beta IP Trust", "US-CA", "EYEION-2024-BETA"},
		}
		for _, a := range affidavits {
			sum := sha256.Sum256([]byte(a.name + "|2024-07-01|Matriarch|" + a.jur))
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO affidavits (asset_id, hash, jurisdiction, clause_ref, issued_by)
				VALUES ($1, $2, $3, $4, $5)`,
				a.assetID, hex.EncodeToString(sum[:]), a.jur, a.clause, "Eyeion Legal Chain"); err != nil {
				return fmt.Errorf("seed affidavit %s: %w", a.clause, err)
			}
		}

		history := []struct {
			txType models.TransactionType
			amount string
			meta   models.JSONMap
		}{
			{models.TxIntake, "875000", models.JSONMap{"step": "Intake", "actor": "Se7en", "notes": "Collateral documents verified by SafeVault"}},
			{models.TxInsurancePremium, "0", models.JSONMap{"step": "Insurance", "multiplier": "3.5x", "provider": "Matriarch"}},
			{models.TxMint, "380038.75", models.JSONMap{"step": "Issuance", "txHash": "0xHASKINSINTAKE"}},
			{models.TxCirculation, "360000", models.JSONMap{"step": "Circulation", "desk": "Kiiantu", "tenorDays": 90}},
			{models.TxRedemption, "380038.75", models.JSONMap{"step": "Redemption", "payout": "380038.75", "certification": "Eyeion"}},
		}
		for _, h := range history {
			if err := l.InsertTransaction(ctx, &models.Transaction{
				AssetID:    &haskins.ID,
				IssuanceID: &haskinsIssuance.ID,
				Type:       h.txType,
				AmountUSD:  decimal.RequireFromString(h.amount),
				Metadata:   h.meta,
			}); err != nil {
				return err
			}
		}

		return nil
	})
}

func seedBand(ctx context.Context, l Ledger, assetID int64, multiplier, coverage string, policy map[string]any) error {
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("marshal seed policy: %w", err)
	}
	return l.InsertBand(ctx, &models.InsuranceBand{
		AssetID:     assetID,
		Provider:    "Matriarch",
		Multiplier:  decimal.RequireFromString(multiplier),
		CoverageUSD: decimal.RequireFromString(coverage),
		PolicyJSON:  string(policyJSON),
	})
}
