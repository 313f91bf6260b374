package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/pkg/logger"
	"github.com/wonny/adpilot/pkg/redis"
)

// CachedProvider wraps a provider with a Redis JSON cache.
// With Redis disabled every call goes straight to the inner provider.
type CachedProvider struct {
	inner  contracts.SnapshotProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider creates a cached provider; ttl <= 0 uses redis.TTLMedium
func NewCachedProvider(inner contracts.SnapshotProvider, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	log = log.WithField("component", "snapshot.cached")
	return &CachedProvider{
		inner:  inner,
		cache:  redis.NewCache(client, "adpilot").WithLogger(log),
		ttl:    ttl,
		logger: log,
	}
}

// GetCampaign returns the cached snapshot or loads and caches it
func (p *CachedProvider) GetCampaign(ctx context.Context, campaignID string) (*contracts.CampaignInput, error) {
	var c contracts.CampaignInput
	err := p.cache.GetOrSet(ctx, redis.CampaignSnapshotKey(campaignID), &c, p.ttl, func() (interface{}, error) {
		p.logger.WithField("campaign_id", campaignID).Debug("snapshot cache miss")
		campaign, err := p.inner.GetCampaign(ctx, campaignID)
		if err == nil && campaign == nil {
			// null 은 캐시하지 않음
			return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
		}
		return campaign, err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Invalidate drops the cached snapshot of a campaign
func (p *CachedProvider) Invalidate(ctx context.Context, campaignID string) error {
	return p.cache.Delete(ctx, redis.CampaignSnapshotKey(campaignID))
}
