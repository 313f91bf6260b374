// Package snapshot supplies campaign snapshots to the engine and persists its output.
//
// The engine core only sees contracts.SnapshotProvider; every implementation
// here is selected once at construction in cmd/adpilot.
package snapshot

import (
	"context"
	"fmt"

	"github.com/wonny/adpilot/internal/contracts"
)

// ErrCampaignNotFound is returned when no snapshot exists for a campaign id
var ErrCampaignNotFound = contracts.ErrCampaignNotFound

// NullProvider is used when no database is configured
type NullProvider struct{}

// NewNullProvider creates a provider without any data
func NewNullProvider() *NullProvider {
	return &NullProvider{}
}

// GetCampaign always reports ErrCampaignNotFound
func (p *NullProvider) GetCampaign(_ context.Context, campaignID string) (*contracts.CampaignInput, error) {
	return nil, fmt.Errorf("%w: %s (no snapshot source configured)", ErrCampaignNotFound, campaignID)
}

var (
	_ contracts.SnapshotProvider = (*NullProvider)(nil)
	_ contracts.SnapshotProvider = (*PostgresProvider)(nil)
	_ contracts.SnapshotProvider = (*CachedProvider)(nil)
)
