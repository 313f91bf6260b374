package contracts

import (
	"context"
	"errors"
)

// ErrCampaignNotFound is returned by a SnapshotProvider without data for the id
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrResultNotFound is returned when no optimization result is stored for a campaign
var ErrResultNotFound = errors.New("optimization result not found")

// Advisor is one rule engine producing recommendations
// ⭐ SSOT: S1 advisor 인터페이스
type Advisor interface {
	// Name identifies the advisor in warnings and metadata
	Name() string

	// Analyze never mutates in; recommendations come back in generation order
	Analyze(ctx context.Context, in *AnalysisInput) ([]Recommendation, error)
}

// SnapshotProvider supplies a read-only snapshot of the current campaign
// ⭐ SSOT: 엔진이 소비하는 유일한 외부 협력자
type SnapshotProvider interface {
	GetCampaign(ctx context.Context, campaignID string) (*CampaignInput, error)
}
