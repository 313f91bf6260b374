package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/adpilot/internal/contracts"
)

// ResultRepository persists optimization results and quality assessments
// ⭐ SSOT: 엔진 출력 저장은 여기서만
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveOptimization stores one orchestrator run keyed by its run id
func (r *ResultRepository) SaveOptimization(ctx context.Context, result *contracts.OptimizationResult) error {
	if result == nil {
		return fmt.Errorf("optimization result is nil")
	}
	if result.Metadata.RunID == "" {
		return fmt.Errorf("optimization result has no run id")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO adpilot.optimization_results (
			run_id, campaign_id, success, state, optimization_score,
			recommendations, config_hash, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			success = EXCLUDED.success,
			state = EXCLUDED.state,
			optimization_score = EXCLUDED.optimization_score,
			recommendations = EXCLUDED.recommendations,
			result = EXCLUDED.result
	`

	_, err = r.pool.Exec(ctx, query,
		result.Metadata.RunID, result.CampaignID, result.Success, string(result.State),
		result.OptimizationScore, len(result.Recommendations), result.Metadata.ConfigHash, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save optimization result: %w", err)
	}

	return nil
}

// SaveAssessment stores a quality assessment keyed by campaign and time
func (r *ResultRepository) SaveAssessment(ctx context.Context, qa *contracts.QualityAssessment) error {
	if qa == nil {
		return fmt.Errorf("quality assessment is nil")
	}

	qaJSON, err := json.Marshal(qa)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	assessedAt := qa.AssessedAt
	if assessedAt.IsZero() {
		assessedAt = time.Now()
	}

	query := `
		INSERT INTO adpilot.quality_assessments (
			campaign_id, assessed_at, overall_score, overall_level, assessment
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_id, assessed_at) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			overall_level = EXCLUDED.overall_level,
			assessment = EXCLUDED.assessment
	`

	_, err = r.pool.Exec(ctx, query, qa.CampaignID, assessedAt, qa.OverallScore, string(qa.OverallLevel), qaJSON)
	if err != nil {
		return fmt.Errorf("failed to save quality assessment: %w", err)
	}

	return nil
}

// LatestOptimization returns the most recent stored run of a campaign
func (r *ResultRepository) LatestOptimization(ctx context.Context, campaignID string) (*contracts.OptimizationResult, error) {
	query := `
		SELECT result
		FROM adpilot.optimization_results
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var resultJSON []byte
	err := r.pool.QueryRow(ctx, query, campaignID).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: campaign %s", contracts.ErrResultNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get optimization result: %w", err)
	}

	var result contracts.OptimizationResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal optimization result: %w", err)
	}

	return &result, nil
}
