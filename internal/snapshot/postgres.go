package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/adpilot/internal/contracts"
)

// PostgresProvider reads campaign snapshots from the adpilot schema
// ⭐ SSOT: campaign snapshot 조회/저장은 여기서만
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider creates a new Postgres snapshot provider
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// GetCampaign loads a campaign with its keywords and ads (in stored order)
func (p *PostgresProvider) GetCampaign(ctx context.Context, campaignID string) (*contracts.CampaignInput, error) {
	query := `
		SELECT name, daily_budget, bidding_strategy, targeting, performance
		FROM adpilot.campaigns
		WHERE campaign_id = $1
	`

	c := &contracts.CampaignInput{CampaignID: campaignID}
	var biddingJSON, targetingJSON, performanceJSON []byte

	err := p.pool.QueryRow(ctx, query, campaignID).Scan(
		&c.Name, &c.Budget, &biddingJSON, &targetingJSON, &performanceJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", campaignID, err)
	}

	if err := decodeOptional(biddingJSON, &c.BiddingStrategy); err != nil {
		return nil, fmt.Errorf("failed to decode bidding strategy: %w", err)
	}
	if err := decodeOptional(targetingJSON, &c.Targeting); err != nil {
		return nil, fmt.Errorf("failed to decode targeting: %w", err)
	}
	if err := decodeOptional(performanceJSON, &c.Performance); err != nil {
		return nil, fmt.Errorf("failed to decode performance: %w", err)
	}

	if c.Keywords, err = p.keywords(ctx, campaignID); err != nil {
		return nil, err
	}
	if c.Ads, err = p.ads(ctx, campaignID); err != nil {
		return nil, err
	}

	return c, nil
}

func (p *PostgresProvider) keywords(ctx context.Context, campaignID string) ([]contracts.Keyword, error) {
	query := `
		SELECT text, match_type, bid, metrics
		FROM adpilot.keywords
		WHERE campaign_id = $1
		ORDER BY position
	`

	rows, err := p.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	keywords := []contracts.Keyword{}
	for rows.Next() {
		var kw contracts.Keyword
		var matchType string
		var metricsJSON []byte
		if err := rows.Scan(&kw.Text, &matchType, &kw.Bid, &metricsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		kw.MatchType = contracts.MatchType(matchType)
		if err := decodeOptional(metricsJSON, &kw.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode keyword metrics: %w", err)
		}
		keywords = append(keywords, kw)
	}

	return keywords, rows.Err()
}

func (p *PostgresProvider) ads(ctx context.Context, campaignID string) ([]contracts.Ad, error) {
	query := `
		SELECT ad_id, headlines, descriptions, final_url, metrics
		FROM adpilot.ads
		WHERE campaign_id = $1
		ORDER BY position
	`

	rows, err := p.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ads: %w", err)
	}
	defer rows.Close()

	ads := []contracts.Ad{}
	for rows.Next() {
		var ad contracts.Ad
		var metricsJSON []byte
		if err := rows.Scan(&ad.ID, &ad.Headlines, &ad.Descriptions, &ad.FinalURL, &metricsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		if err := decodeOptional(metricsJSON, &ad.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode ad metrics: %w", err)
		}
		ads = append(ads, ad)
	}

	return ads, rows.Err()
}

// SaveCampaign replaces the stored snapshot of a campaign
func (p *PostgresProvider) SaveCampaign(ctx context.Context, c *contracts.CampaignInput) error {
	if c == nil || c.CampaignID == "" {
		return fmt.Errorf("campaign_id is required")
	}

	biddingJSON, err := encodeOptional(c.BiddingStrategy)
	if err != nil {
		return fmt.Errorf("failed to marshal bidding strategy: %w", err)
	}
	targetingJSON, err := encodeOptional(c.Targeting)
	if err != nil {
		return fmt.Errorf("failed to marshal targeting: %w", err)
	}
	performanceJSON, err := encodeOptional(c.Performance)
	if err != nil {
		return fmt.Errorf("failed to marshal performance: %w", err)
	}

	// Begin transaction
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO adpilot.campaigns (
			campaign_id, name, daily_budget, bidding_strategy, targeting, performance
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (campaign_id) DO UPDATE SET
			name = EXCLUDED.name,
			daily_budget = EXCLUDED.daily_budget,
			bidding_strategy = EXCLUDED.bidding_strategy,
			targeting = EXCLUDED.targeting,
			performance = EXCLUDED.performance,
			updated_at = NOW()
	`, c.CampaignID, c.Name, c.Budget, biddingJSON, targetingJSON, performanceJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}

	// keywords / ads 는 통째로 교체
	if _, err := tx.Exec(ctx, "DELETE FROM adpilot.keywords WHERE campaign_id = $1", c.CampaignID); err != nil {
		return fmt.Errorf("failed to delete old keywords: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM adpilot.ads WHERE campaign_id = $1", c.CampaignID); err != nil {
		return fmt.Errorf("failed to delete old ads: %w", err)
	}

	for i, kw := range c.Keywords {
		metricsJSON, err := encodeOptional(kw.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal keyword metrics: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO adpilot.keywords (campaign_id, position, text, match_type, bid, metrics)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.CampaignID, i, kw.Text, string(kw.MatchType), kw.Bid, metricsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert keyword: %w", err)
		}
	}

	for i, ad := range c.Ads {
		metricsJSON, err := encodeOptional(ad.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal ad metrics: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO adpilot.ads (campaign_id, position, ad_id, headlines, descriptions, final_url, metrics)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, c.CampaignID, i, ad.ID, nonNil(ad.Headlines), nonNil(ad.Descriptions), ad.FinalURL, metricsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert ad: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// decodeOptional leaves dest untouched for NULL columns
func decodeOptional(data []byte, dest interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// encodeOptional maps a nil pointer to a NULL column
func encodeOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
