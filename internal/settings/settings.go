// Package settings supplies the admin settings snapshot a calculation runs
// against. A snapshot is fetched once per calculation and then treated as
// immutable, so later admin edits never affect a calculation in flight or a
// quote created before the edit.
package settings

import (
	"context"
	"time"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/google/uuid"
)

// Provider returns the settings of an organization effective at a point in
// time.
type Provider interface {
	// Snapshot returns the settings in force at the quote creation time.
	Snapshot(ctx context.Context, orgID uuid.UUID, at time.Time) (domain.AdminSettings, error)
}

// Static serves the same settings to every organization. Used when no
// settings store is configured and in tests.
type Static struct {
	settings domain.AdminSettings
}

// Compile-time check that Static implements Provider.
var _ Provider = (*Static)(nil)

// NewStatic creates a provider that always returns s.
func NewStatic(s domain.AdminSettings) *Static {
	return &Static{settings: s}
}

// Snapshot returns a copy of the configured settings stamped with orgID.
func (p *Static) Snapshot(ctx context.Context, orgID uuid.UUID, at time.Time) (domain.AdminSettings, error) {
	s := p.settings
	s.OrganizationID = orgID
	if s.DefaultDeliveryDays != nil {
		days := *s.DefaultDeliveryDays
		s.DefaultDeliveryDays = &days
	}
	return s, nil
}

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	SnapshotFunc func(ctx context.Context, orgID uuid.UUID, at time.Time) (domain.AdminSettings, error)
	Calls        int
}

// Snapshot delegates to SnapshotFunc and counts calls.
func (m *MockProvider) Snapshot(ctx context.Context, orgID uuid.UUID, at time.Time) (domain.AdminSettings, error) {
	m.Calls++
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, orgID, at)
	}
	return domain.AdminSettings{OrganizationID: orgID}, nil
}
