package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromRow(t *testing.T) {
	orgID := uuid.New()
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := settingsFromRow(settingsRow{
		OrganizationID:      orgID,
		EffectiveFrom:       pgtype.Timestamptz{Time: effective, Valid: true},
		ForexRiskRate:       "3.0000",
		FinCommissionRate:   "2",
		LoanInterestDaily:   "0.069",
		DefaultMarkup:       pgtype.Text{String: "15.5", Valid: true},
		DefaultDeliveryDays: pgtype.Int4{Int32: 45, Valid: true},
	})
	require.NoError(t, err)

	assert.Equal(t, orgID, got.OrganizationID)
	assert.True(t, got.EffectiveFrom.Equal(effective))
	assert.True(t, got.ForexRiskRate.Equal(decimal.NewFromInt(3)))
	assert.True(t, got.FinCommissionRate.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "0.069", got.LoanInterestDaily.String())
	require.True(t, got.DefaultMarkup.Valid)
	assert.Equal(t, "15.5", got.DefaultMarkup.Decimal.String())
	require.NotNil(t, got.DefaultDeliveryDays)
	assert.Equal(t, 45, *got.DefaultDeliveryDays)
}

func TestSettingsFromRow_NullDefaults(t *testing.T) {
	got, err := settingsFromRow(settingsRow{
		ForexRiskRate:     "0",
		FinCommissionRate: "0",
		LoanInterestDaily: "0",
	})
	require.NoError(t, err)

	assert.False(t, got.DefaultMarkup.Valid)
	assert.Nil(t, got.DefaultDeliveryDays)
}

func TestSettingsFromRow_ZeroMarkupIsPresent(t *testing.T) {
	got, err := settingsFromRow(settingsRow{
		ForexRiskRate:     "3",
		FinCommissionRate: "2",
		LoanInterestDaily: "0.069",
		DefaultMarkup:     pgtype.Text{String: "0", Valid: true},
	})
	require.NoError(t, err)

	assert.True(t, got.DefaultMarkup.Valid)
	assert.True(t, got.DefaultMarkup.Decimal.IsZero())
}

func TestSettingsFromRow_Malformed(t *testing.T) {
	_, err := settingsFromRow(settingsRow{
		ForexRiskRate:     "three",
		FinCommissionRate: "2",
		LoanInterestDaily: "0.069",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_forex_risk")
}
