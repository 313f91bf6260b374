package contracts

import (
	"sort"
	"strings"
)

// Goal is an optimization goal
type Goal string

const (
	GoalMaximizeConversions     Goal = "maximize_conversions"
	GoalMaximizeConversionValue Goal = "maximize_conversion_value"
	GoalTargetCPA               Goal = "target_cpa"
	GoalTargetROAS              Goal = "target_roas"
	GoalMaximizeClicks          Goal = "maximize_clicks"
	GoalTargetImpressionShare   Goal = "target_impression_share"
	GoalMinimizeCost            Goal = "minimize_cost"
	GoalImproveQualityScore     Goal = "improve_quality_score"
)

var knownGoals = map[Goal]bool{
	GoalMaximizeConversions:     true,
	GoalMaximizeConversionValue: true,
	GoalTargetCPA:               true,
	GoalTargetROAS:              true,
	GoalMaximizeClicks:          true,
	GoalTargetImpressionShare:   true,
	GoalMinimizeCost:            true,
	GoalImproveQualityScore:     true,
}

// Valid reports whether g is a known goal
func (g Goal) Valid() bool {
	return knownGoals[g]
}

// Phrase returns the goal as words ("maximize conversions")
func (g Goal) Phrase() string {
	return strings.ReplaceAll(string(g), "_", " ")
}

// GoalSet is a sorted, duplicate free set of goals
type GoalSet []Goal

// ParseGoals normalizes raw goal names; unknown names are returned separately
func ParseGoals(raw []string) (GoalSet, []string) {
	seen := make(map[Goal]bool)
	var unknown []string

	for _, r := range raw {
		name := strings.ToLower(strings.TrimSpace(r))
		if name == "" {
			continue
		}
		g := Goal(name)
		if !g.Valid() {
			unknown = append(unknown, r)
			continue
		}
		seen[g] = true
	}

	set := make(GoalSet, 0, len(seen))
	for g := range seen {
		set = append(set, g)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	return set, unknown
}

// Has reports whether the set contains goal
func (s GoalSet) Has(goal Goal) bool {
	for _, g := range s {
		if g == goal {
			return true
		}
	}
	return false
}

// Strings returns the goal names
func (s GoalSet) Strings() []string {
	out := make([]string, len(s))
	for i, g := range s {
		out[i] = string(g)
	}
	return out
}
