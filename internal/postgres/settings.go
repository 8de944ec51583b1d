package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/settings"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SettingsStore implements settings.Provider using PostgreSQL. Settings
// rows are append-only and effective-dated; a snapshot is the latest row
// effective at the requested time.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that SettingsStore implements settings.Provider.
var _ settings.Provider = (*SettingsStore)(nil)

// NewSettingsStore creates a PostgreSQL-backed settings store.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

const snapshotQuery = `
SELECT organization_id,
       effective_from,
       rate_forex_risk::text,
       rate_fin_comm::text,
       rate_loan_interest_daily::text,
       default_markup::text,
       default_delivery_days
FROM calculation_settings
WHERE organization_id = $1
  AND effective_from <= $2
ORDER BY effective_from DESC
LIMIT 1`

// settingsRow mirrors the selected columns. Numerics are read as text to
// keep them exact.
type settingsRow struct {
	OrganizationID      uuid.UUID
	EffectiveFrom       pgtype.Timestamptz
	ForexRiskRate       string
	FinCommissionRate   string
	LoanInterestDaily   string
	DefaultMarkup       pgtype.Text
	DefaultDeliveryDays pgtype.Int4
}

// Snapshot returns the settings effective at the given time.
func (s *SettingsStore) Snapshot(ctx context.Context, orgID uuid.UUID, at time.Time) (domain.AdminSettings, error) {
	var row settingsRow
	err := s.pool.QueryRow(ctx, snapshotQuery, orgID, at).Scan(
		&row.OrganizationID,
		&row.EffectiveFrom,
		&row.ForexRiskRate,
		&row.FinCommissionRate,
		&row.LoanInterestDaily,
		&row.DefaultMarkup,
		&row.DefaultDeliveryDays,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AdminSettings{}, domain.NotFound("settings.snapshot", "admin settings", orgID.String())
	}
	if err != nil {
		return domain.AdminSettings{}, domain.Internal(err, "settings.snapshot", "failed to load admin settings")
	}

	out, err := settingsFromRow(row)
	if err != nil {
		return domain.AdminSettings{}, domain.Internal(err, "settings.snapshot", "stored admin settings are malformed")
	}
	return out, nil
}

// SaveParams are the values of a new settings version.
type SaveParams struct {
	OrganizationID      uuid.UUID
	EffectiveFrom       time.Time
	ForexRiskRate       decimal.Decimal
	FinCommissionRate   decimal.Decimal
	LoanInterestDaily   decimal.Decimal
	DefaultMarkup       decimal.NullDecimal
	DefaultDeliveryDays *int
}

const insertQuery = `
INSERT INTO calculation_settings (
    organization_id, effective_from, rate_forex_risk, rate_fin_comm,
    rate_loan_interest_daily, default_markup, default_delivery_days
) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7)`

// Save appends a new settings version. Existing versions are never updated,
// so quotes created earlier keep their snapshot.
func (s *SettingsStore) Save(ctx context.Context, p SaveParams) error {
	markup := pgtype.Text{}
	if p.DefaultMarkup.Valid {
		markup = pgtype.Text{String: p.DefaultMarkup.Decimal.String(), Valid: true}
	}
	days := pgtype.Int4{}
	if p.DefaultDeliveryDays != nil {
		days = pgtype.Int4{Int32: int32(*p.DefaultDeliveryDays), Valid: true}
	}

	_, err := s.pool.Exec(ctx, insertQuery,
		p.OrganizationID,
		p.EffectiveFrom,
		p.ForexRiskRate.String(),
		p.FinCommissionRate.String(),
		p.LoanInterestDaily.String(),
		markup,
		days,
	)
	if err != nil {
		return domain.Internal(err, "settings.save", "failed to save admin settings")
	}
	return nil
}

func settingsFromRow(row settingsRow) (domain.AdminSettings, error) {
	out := domain.AdminSettings{
		OrganizationID: row.OrganizationID,
		EffectiveFrom:  row.EffectiveFrom.Time,
	}

	var err error
	if out.ForexRiskRate, err = decimal.NewFromString(row.ForexRiskRate); err != nil {
		return domain.AdminSettings{}, fmt.Errorf("parse rate_forex_risk: %w", err)
	}
	if out.FinCommissionRate, err = decimal.NewFromString(row.FinCommissionRate); err != nil {
		return domain.AdminSettings{}, fmt.Errorf("parse rate_fin_comm: %w", err)
	}
	if out.LoanInterestDaily, err = decimal.NewFromString(row.LoanInterestDaily); err != nil {
		return domain.AdminSettings{}, fmt.Errorf("parse rate_loan_interest_daily: %w", err)
	}
	if row.DefaultMarkup.Valid {
		markup, err := decimal.NewFromString(row.DefaultMarkup.String)
		if err != nil {
			return domain.AdminSettings{}, fmt.Errorf("parse default_markup: %w", err)
		}
		out.DefaultMarkup = decimal.NewNullDecimal(markup)
	}
	if row.DefaultDeliveryDays.Valid {
		days := int(row.DefaultDeliveryDays.Int32)
		out.DefaultDeliveryDays = &days
	}
	return out, nil
}
