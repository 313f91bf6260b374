package s1_advisors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/adpilot/internal/contracts"
)

// recommendationNamespace seeds deterministic recommendation ids
var recommendationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://adpilot.dev/recommendation"))

// RecommendationID derives a stable id from category, rule and entity key.
// Re-running the engine on the same campaign yields the same ids.
func RecommendationID(category contracts.Category, rule, entityKey string) string {
	name := string(category) + "|" + rule + "|" + entityKey
	return uuid.NewSHA1(recommendationNamespace, []byte(name)).String()
}

// ruleSpec is the fixed outcome tuple of one threshold rule
type ruleSpec struct {
	Rule        string
	Category    contracts.Category
	Priority    contracts.Priority
	Effort      contracts.Effort
	Risk        contracts.RiskLevel
	Confidence  float64
	Improvement map[string]float64
	Timeline    string
}

// finding is the entity specific text of one rule firing
type finding struct {
	EntityKey     string
	Title         string
	Description   string
	Impact        string
	Actions       []string
	Prerequisites []string
}

// build turns a rule firing into a Recommendation
func (s ruleSpec) build(f finding) contracts.Recommendation {
	improvement := make(map[string]float64, len(s.Improvement))
	for k, v := range s.Improvement {
		improvement[k] = v
	}

	rec := contracts.Recommendation{
		ID:                   RecommendationID(s.Category, s.Rule, f.EntityKey),
		Category:             s.Category,
		Priority:             s.Priority,
		Title:                f.Title,
		Description:          f.Description,
		ExpectedImpact:       f.Impact,
		ImplementationEffort: s.Effort,
		EstimatedImprovement: improvement,
		ActionItems:          append([]string{}, f.Actions...),
		RiskLevel:            s.Risk,
		ConfidenceScore:      contracts.ClampRatio(s.Confidence),
		Timeline:             s.Timeline,
		Prerequisites:        contracts.MergeSet(nil, f.Prerequisites...),
	}
	rec.AddAffected(f.EntityKey)
	return rec
}

// fanOut runs fn for every item on at most workers goroutines and flattens
// the results in input order, so generation order never depends on scheduling.
// A panic inside fn is returned as an error of that item.
func fanOut[T any](ctx context.Context, workers int, items []T, fn func(i int, item T) []contracts.Recommendation) ([]contracts.Recommendation, error) {
	results := make([][]contracts.Recommendation, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range items {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("item %d: panic: %v", i, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(i, items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []contracts.Recommendation
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
