package s1_advisors

import (
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

// DefaultAdvisors returns the six advisors in generation order
// ⭐ SSOT: advisor 실행 순서는 여기서만 (prioritizer 동점 처리 기준)
func DefaultAdvisors(cfg *engineconfig.Config, log *logger.Logger) []contracts.Advisor {
	return []contracts.Advisor{
		NewKeywordOptimizer(cfg, log),
		NewAdCopyOptimizer(cfg, log),
		NewBiddingStrategyAdvisor(cfg, log),
		NewTargetingAdvisor(cfg, log),
		NewBudgetAdvisor(cfg, log),
		NewQualityScoreAdvisor(cfg, log),
	}
}
