package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/harvest-estate/gateway/models"
)

// Ledger is the transactional handle a lifecycle operation works against.
// Lookup methods return (nil, nil) when no row matches; writes fill in
// database-generated identity and timestamp fields on the passed record.
type Ledger interface {
	AssetByExternalID(ctx context.Context, externalID string) (*models.Asset, error)
	AssetByID(ctx context.Context, id int64) (*models.Asset, error)
	InsertAsset(ctx context.Context, asset *models.Asset) error
	UpdateAsset(ctx context.Context, asset *models.Asset) error

	IssuanceBySymbol(ctx context.Context, assetID int64, tokenSymbol string) (*models.Issuance, error)
	LatestIssuance(ctx context.Context, assetID int64) (*models.Issuance, error)
	InsertIssuance(ctx context.Context, issuance *models.Issuance) error
	UpdateIssuance(ctx context.Context, issuance *models.Issuance) error
	IssuancesForAsset(ctx context.Context, assetID int64) ([]models.Issuance, error)

	BandByProvider(ctx context.Context, assetID int64, provider string) (*models.InsuranceBand, error)
	InsertBand(ctx context.Context, band *models.InsuranceBand) error
	UpdateBand(ctx context.Context, band *models.InsuranceBand) error
	BandsForAsset(ctx context.Context, assetID int64) ([]models.InsuranceBand, error)

	InsertTransaction(ctx context.Context, tx *models.Transaction) error

	AffidavitByHash(ctx context.Context, hash string) (*models.Affidavit, error)
	AffidavitsForAsset(ctx context.Context, assetID int64) ([]models.Affidavit, error)

	UserByRole(ctx context.Context, role models.FiduciaryRole) (*models.User, error)
	InsertLedgerLog(ctx context.Context, entry *models.LedgerLog) error
}

// Txer runs a function against a transactional Ledger handle.
type Txer interface {
	WithTx(ctx context.Context, fn func(Ledger) error) error
}

// Store provides transactional access to the ledger tables.
type Store struct {
	db *DB
}

// NewStore creates a Store over an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a single database transaction. The transaction
// commits on a nil return and rolls back on error or panic; the handle is
// released on every exit path.
func (s *Store) WithTx(ctx context.Context, fn func(Ledger) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txLedger{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txLedger implements Ledger over an open *sqlx.Tx.
type txLedger struct {
	tx *sqlx.Tx
}

const assetColumns = `id, external_id, name, asset_type, jurisdiction, valuation_usd, status, intake_at, updated_at`

func (l *txLedger) AssetByExternalID(ctx context.Context, externalID string) (*models.Asset, error) {
	var asset models.Asset
	err := l.tx.GetContext(ctx, &asset,
		`SELECT `+assetColumns+` FROM assets WHERE external_id = $1`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select asset by external id: %w", err)
	}
	return &asset, nil
}

func (l *txLedger) AssetByID(ctx context.Context, id int64) (*models.Asset, error) {
	var asset models.Asset
	err := l.tx.GetContext(ctx, &asset,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select asset by id: %w", err)
	}
	return &asset, nil
}

func (l *txLedger) InsertAsset(ctx context.Context, asset *models.Asset) error {
	err := l.tx.QueryRowxContext(ctx, `
		INSERT INTO assets (external_id, name, asset_type, jurisdiction, valuation_usd, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, intake_at, updated_at`,
		asset.ExternalID, asset.Name, asset.AssetType, asset.Jurisdiction, asset.ValuationUSD, asset.Status,
	).Scan(&asset.ID, &asset.IntakeAt, &asset.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (l *txLedger) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	err := l.tx.QueryRowxContext(ctx, `
		UPDATE assets
		SET name = $1, asset_type = $2, jurisdiction = $3, valuation_usd = $4, status = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`,
		asset.Name, asset.AssetType, asset.Jurisdiction, asset.ValuationUSD, asset.Status, asset.ID,
	).Scan(&asset.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

const issuanceColumns = `id, asset_id, token_symbol, quantity, nav_per_token, policy_floor, tx_hash, issued_at, created_at`

func (l *txLedger) IssuanceBySymbol(ctx context.Context, assetID int64, tokenSymbol string) (*models.Issuance, error) {
	var issuance models.Issuance
	err := l.tx.GetContext(ctx, &issuance,
		`SELECT `+issuanceColumns+` FROM issuances WHERE asset_id = $1 AND token_symbol = $2`,
		assetID, tokenSymbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select issuance by symbol: %w", err)
	}
	return &issuance, nil
}

func (l *txLedger) LatestIssuance(ctx context.Context, assetID int64) (*models.Issuance, error) {
	var issuance models.Issuance
	err := l.tx.GetContext(ctx, &issuance,
		`SELECT `+issuanceColumns+` FROM issuances WHERE asset_id = $1 ORDER BY created_at DESC LIMIT 1`,
		assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest issuance: %w", err)
	}
	return &issuance, nil
}

func (l *txLedger) InsertIssuance(ctx context.Context, issuance *models.Issuance) error {
	err := l.tx.QueryRowxContext(ctx, `
		INSERT INTO issuances (asset_id, token_symbol, quantity, nav_per_token, policy_floor, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, issued_at, created_at`,
		issuance.AssetID, issuance.TokenSymbol, issuance.Quantity, issuance.NavPerToken,
		issuance.PolicyFloor, issuance.TxHash,
	).Scan(&issuance.ID, &issuance.IssuedAt, &issuance.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert issuance: %w", err)
	}
	return nil
}

func (l *txLedger) UpdateIssuance(ctx context.Context, issuance *models.Issuance) error {
	_, err := l.tx.ExecContext(ctx, `
		UPDATE issuances
		SET quantity = $1, nav_per_token = $2, policy_floor = $3, tx_hash = $4
		WHERE id = $5`,
		issuance.Quantity, issuance.NavPerToken, issuance.PolicyFloor, issuance.TxHash, issuance.ID)
	if err != nil {
		return fmt.Errorf("update issuance: %w", err)
	}
	return nil
}

func (l *txLedger) IssuancesForAsset(ctx context.Context, assetID int64) ([]models.Issuance, error) {
	var issuances []models.Issuance
	err := l.tx.SelectContext(ctx, &issuances,
		`SELECT `+issuanceColumns+` FROM issuances WHERE asset_id = $1 ORDER BY id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("select issuances for asset: %w", err)
	}
	return issuances, nil
}

const bandColumns = `id, asset_id, provider, multiplier, coverage_usd, policy_json, effective_at, created_at`

func (l *txLedger) BandByProvider(ctx context.Context, assetID int64, provider string) (*models.InsuranceBand, error) {
	var band models.InsuranceBand
	err := l.tx.GetContext(ctx, &band,
		`SELECT `+bandColumns+` FROM insurance_bands WHERE asset_id = $1 AND provider = $2`,
		assetID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select insurance band: %w", err)
	}
	return &band, nil
}

func (l *txLedger) InsertBand(ctx context.Context, band *models.InsuranceBand) error {
	err := l.tx.QueryRowxContext(ctx, `
		INSERT INTO insurance_bands (asset_id, provider, multiplier, coverage_usd, policy_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, effective_at, created_at`,
		band.AssetID, band.Provider, band.Multiplier, band.CoverageUSD, band.PolicyJSON,
	).Scan(&band.ID, &band.EffectiveAt, &band.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert insurance band: %w", err)
	}
	return nil
}

func (l *txLedger) UpdateBand(ctx context.Context, band *models.InsuranceBand) error {
	_, err := l.tx.ExecContext(ctx, `
		UPDATE insurance_bands
		SET multiplier = $1, coverage_usd = $2, policy_json = $3
		WHERE id = $4`,
		band.Multiplier, band.CoverageUSD, band.PolicyJSON, band.ID)
	if err != nil {
		return fmt.Errorf("update insurance band: %w", err)
	}
	return nil
}

func (l *txLedger) BandsForAsset(ctx context.Context, assetID int64) ([]models.InsuranceBand, error) {
	var bands []models.InsuranceBand
	err := l.tx.SelectContext(ctx, &bands,
		`SELECT `+bandColumns+` FROM insurance_bands WHERE asset_id = $1 ORDER BY id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("select insurance bands for asset: %w", err)
	}
	return bands, nil
}

func (l *txLedger) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	err := l.tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (asset_id, issuance_id, type, amount_usd, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, occurred_at, created_at`,
		tx.AssetID, tx.IssuanceID, tx.Type, tx.AmountUSD, tx.Metadata,
	).Scan(&tx.ID, &tx.OccurredAt, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const affidavitColumns = `id, asset_id, hash, jurisdiction, clause_ref, issued_by, created_at`

func (l *txLedger) AffidavitByHash(ctx context.Context, hash string) (*models.Affidavit, error) {
	var affidavit models.Affidavit
	err := l.tx.GetContext(ctx, &affidavit,
		`SELECT `+affidavitColumns+` FROM affidavits WHERE hash = $1`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select affidavit by hash: %w", err)
	}
	return &affidavit, nil
}

func (l *txLedger) AffidavitsForAsset(ctx context.Context, assetID int64) ([]models.Affidavit, error) {
	var affidavits []models.Affidavit
	err := l.tx.SelectContext(ctx, &affidavits,
		`SELECT `+affidavitColumns+` FROM affidavits WHERE asset_id = $1 ORDER BY id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("select affidavits for asset: %w", err)
	}
	return affidavits, nil
}

func (l *txLedger) UserByRole(ctx context.Context, role models.FiduciaryRole) (*models.User, error) {
	var user models.User
	err := l.tx.GetContext(ctx, &user,
		`SELECT id, email, display_name, role, status, created_at, updated_at
		 FROM users WHERE role = $1 ORDER BY id LIMIT 1`, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user by role: %w", err)
	}
	return &user, nil
}

func (l *txLedger) InsertLedgerLog(ctx context.Context, entry *models.LedgerLog) error {
	err := l.tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_logs (scope, level, message, metadata, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		entry.Scope, entry.Level, entry.Message, entry.Metadata, entry.UserID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger log: %w", err)
	}
	return nil
}
