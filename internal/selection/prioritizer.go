package selection

import (
	"sort"
	"strings"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

// Prioritizer implements S2: recommendation merge + priority scoring
// ⭐ SSOT: priority score 공식은 여기서만
type Prioritizer struct {
	weights engineconfig.Priority
	logger  *logger.Logger
}

// NewPrioritizer creates a new prioritizer
func NewPrioritizer(cfg *engineconfig.Config, log *logger.Logger) *Prioritizer {
	return &Prioritizer{
		weights: cfg.Priority,
		logger:  log.WithField("component", "selection.prioritizer"),
	}
}

// Prioritize merges recommendations, scores them and sorts by descending score.
// Ties keep generation order (stable sort). Duplicate ids collapse into the
// first occurrence with the affected entities unioned. The input is not modified.
func (p *Prioritizer) Prioritize(recs []contracts.Recommendation, goals contracts.GoalSet) []contracts.Recommendation {
	merged := make([]contracts.Recommendation, 0, len(recs))
	index := make(map[string]int, len(recs))
	duplicates := 0

	for _, r := range recs {
		if i, ok := index[r.ID]; ok {
			merged[i].AffectedEntities = contracts.MergeSet(merged[i].AffectedEntities, r.AffectedEntities...)
			duplicates++
			continue
		}
		r.AffectedEntities = contracts.MergeSet(nil, r.AffectedEntities...)
		r.PriorityScore = p.Score(r, goals)
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}

	// Sort by priority score (descending), stable for ties
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PriorityScore > merged[j].PriorityScore
	})

	fields := map[string]interface{}{
		"input":      len(recs),
		"output":     len(merged),
		"duplicates": duplicates,
	}
	if len(merged) > 0 {
		fields["top_score"] = merged[0].PriorityScore
		fields["top_id"] = merged[0].ID
	}
	p.logger.WithFields(fields).Debug("Prioritization completed")

	return merged
}

// Score calculates the priority score of one recommendation
//
//	score = level_points[priority] + confidence × multiplier
//	      + effort_points[effort] + risk_points[risk] + goal bonus
func (p *Prioritizer) Score(r contracts.Recommendation, goals contracts.GoalSet) float64 {
	score := p.weights.LevelPoints.For(r.Priority) +
		contracts.ClampRatio(r.ConfidenceScore)*p.weights.ConfidenceMultiplier +
		p.weights.EffortPoints.ForEffort(r.ImplementationEffort) +
		p.weights.RiskPoints.ForRisk(r.RiskLevel)

	if MentionsGoal(r.Description, goals) {
		score += p.weights.GoalBonus
	}
	return score
}

// MentionsGoal reports whether text names any requested goal, either as the
// goal token ("maximize_conversions") or in words ("maximize conversions").
// Matching is case-insensitive.
func MentionsGoal(text string, goals contracts.GoalSet) bool {
	if text == "" || len(goals) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, g := range goals {
		if strings.Contains(lower, string(g)) || strings.Contains(lower, g.Phrase()) {
			return true
		}
	}
	return false
}
