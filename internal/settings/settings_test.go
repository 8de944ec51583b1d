package settings

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Snapshot(t *testing.T) {
	days := 30
	p := NewStatic(domain.AdminSettings{
		ForexRiskRate:       decimal.NewFromInt(3),
		DefaultDeliveryDays: &days,
	})

	orgID := uuid.New()
	got, err := p.Snapshot(context.Background(), orgID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, orgID, got.OrganizationID)
	assert.True(t, got.ForexRiskRate.Equal(decimal.NewFromInt(3)))

	// Snapshots are independent copies.
	*got.DefaultDeliveryDays = 99
	again, err := p.Snapshot(context.Background(), orgID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 30, *again.DefaultDeliveryDays)
}

func TestMockProvider_CountsCalls(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	m := &MockProvider{
		SnapshotFunc: func(ctx context.Context, orgID uuid.UUID, got time.Time) (domain.AdminSettings, error) {
			assert.True(t, got.Equal(at))
			return domain.AdminSettings{LoanInterestDaily: decimal.RequireFromString("0.069")}, nil
		},
	}

	s, err := m.Snapshot(context.Background(), uuid.New(), at)
	require.NoError(t, err)
	assert.Equal(t, "0.069", s.LoanInterestDaily.String())
	assert.Equal(t, 1, m.Calls)
}
