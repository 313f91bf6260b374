package quality

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/internal/s0_metrics"
)

var (
	// 정책 위반 패턴
	excessivePunctuation = regexp.MustCompile(`[!?]{2,}|!.*!`)
	shoutingWord         = regexp.MustCompile(`\b[A-Z]{4,}\b`)
	superlativeClaim     = regexp.MustCompile(`(?i)(\bbest\b|#1\b|\bnumber one\b|\bcheapest\b|\bguaranteed\b|\blowest price\b|\bgreatest\b)`)

	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// metricTolerance is the relative tolerance for supplied derived metrics
const metricTolerance = 0.01

// relevance: share of keyword tokens that appear in the ad copy
func (a *Assessor) relevance(s *subject) dimensionResult {
	c := s.campaign
	if len(c.Keywords) == 0 || len(c.Ads) == 0 {
		return dimensionResult{
			score:   0,
			details: map[string]interface{}{"keywords": len(c.Keywords), "ads": len(c.Ads)},
			recs:    []string{"Add keywords and ads so relevance can be measured"},
		}
	}

	copyTokens := make(map[string]bool)
	for _, ad := range c.Ads {
		for _, tok := range tokens(ad.Copy()) {
			copyTokens[tok] = true
		}
	}

	var ratioSum float64
	var uncovered []string
	measured := 0 // 토큰이 있는 keyword 수
	for _, kw := range c.Keywords {
		toks := tokens(kw.Text)
		if len(toks) == 0 {
			continue
		}
		measured++
		hit := 0
		for _, t := range toks {
			if copyTokens[t] {
				hit++
			}
		}
		ratioSum += float64(hit) / float64(len(toks))
		if hit < len(toks) {
			uncovered = append(uncovered, kw.Text)
		}
	}

	overlap := contracts.SafeDiv(ratioSum, float64(measured))
	r := dimensionResult{
		score: overlap * 100,
		details: map[string]interface{}{
			"overlap_ratio":      overlap,
			"uncovered_keywords": nonNil(uncovered),
		},
	}
	if len(uncovered) > 0 {
		r.recs = append(r.recs, fmt.Sprintf("Use keywords in ad copy (%d keyword(s) missing from headlines and descriptions)", len(uncovered)))
	}
	return r
}

// clarity: asset length limits, empty and duplicate assets
func (a *Assessor) clarity(s *subject) dimensionResult {
	d := a.cfg.Quality.Deductions
	limits := a.cfg.Ads
	var overlong, empty, duplicate int

	for _, ad := range s.campaign.Ads {
		seen := make(map[string]bool)
		for _, h := range ad.Headlines {
			text := strings.TrimSpace(h)
			switch {
			case text == "":
				empty++
				continue
			case utf8.RuneCountInString(text) > limits.HeadlineMaxChars:
				overlong++
			}
			key := strings.ToLower(text)
			if seen[key] {
				duplicate++
			}
			seen[key] = true
		}
		for _, desc := range ad.Descriptions {
			text := strings.TrimSpace(desc)
			switch {
			case text == "":
				empty++
			case utf8.RuneCountInString(text) > limits.DescriptionMaxChars:
				overlong++
			}
		}
	}

	r := dimensionResult{
		score: 100 - float64(overlong)*d.OverlongAsset - float64(empty)*d.EmptyAsset - float64(duplicate)*d.DuplicateAsset,
		details: map[string]interface{}{
			"overlong_assets":     overlong,
			"empty_assets":        empty,
			"duplicate_headlines": duplicate,
		},
	}
	if overlong > 0 {
		r.recs = append(r.recs, fmt.Sprintf("Shorten headlines to %d and descriptions to %d characters", limits.HeadlineMaxChars, limits.DescriptionMaxChars))
	}
	if empty > 0 {
		r.recs = append(r.recs, "Remove or fill empty headlines and descriptions")
	}
	if duplicate > 0 {
		r.recs = append(r.recs, "Make every headline in an ad distinct")
	}
	return r
}

// completeness: −deduction per missing required field
func (a *Assessor) completeness(s *subject) dimensionResult {
	c := s.campaign
	var missing []string

	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if c.Budget == nil || *c.Budget <= 0 {
		missing = append(missing, "budget")
	}
	if len(c.Keywords) == 0 {
		missing = append(missing, "keywords")
	}
	if len(c.Ads) == 0 {
		missing = append(missing, "ads")
	}
	if c.Targeting.IsEmpty() {
		missing = append(missing, "targeting")
	}

	r := dimensionResult{
		score:   100 - float64(len(missing))*a.cfg.Quality.Deductions.MissingField,
		details: map[string]interface{}{"missing_fields": nonNil(missing)},
	}
	for _, f := range missing {
		r.recs = append(r.recs, "Add campaign "+f)
	}
	return r
}

// accuracy: supplied derived metrics and counter relations
func (a *Assessor) accuracy(s *subject) dimensionResult {
	d := a.cfg.Quality.Deductions
	var mismatches []string
	var impossible []string

	check := func(entity string, raw *contracts.PerformanceInput) {
		for _, m := range s0_metrics.Discrepancies(raw, metricTolerance) {
			mismatches = append(mismatches, fmt.Sprintf("%s %s: supplied %.4f, computed %.4f", entity, m.Metric, m.Supplied, m.Computed))
		}
		for _, p := range s0_metrics.ImpossibleCounters(raw) {
			impossible = append(impossible, entity+": "+p)
		}
	}

	c := s.campaign
	check(contracts.CampaignKey(c.CampaignID), c.Performance)
	for _, kw := range c.Keywords {
		check(kw.Key(), kw.Metrics)
	}
	for _, ad := range c.Ads {
		check(ad.Key(), ad.Metrics)
	}

	r := dimensionResult{
		score: 100 - float64(len(mismatches))*d.MetricMismatch - float64(len(impossible))*d.ImpossibleCounter,
		details: map[string]interface{}{
			"metric_mismatches":   nonNil(mismatches),
			"impossible_counters": nonNil(impossible),
		},
	}
	if len(mismatches) > 0 {
		r.recs = append(r.recs, "Recompute reported CTR, conversion rate, CPC and cost per conversion from raw counters")
	}
	if len(impossible) > 0 {
		r.recs = append(r.recs, "Fix performance data where clicks exceed impressions or conversions exceed clicks")
	}
	return r
}

// consistency: duplicate keywords, match types, bids and landing page domains
func (a *Assessor) consistency(s *subject) dimensionResult {
	d := a.cfg.Quality.Deductions
	c := s.campaign

	seen := make(map[string]bool)
	var duplicates, zeroBids, invalidMatch int
	for _, kw := range c.Keywords {
		key := kw.Key()
		if seen[key] {
			duplicates++
		}
		seen[key] = true
		if kw.Bid <= 0 {
			zeroBids++
		}
		if !kw.MatchType.Valid() {
			invalidMatch++
		}
	}

	hosts := make(map[string]bool)
	for _, ad := range c.Ads {
		if h := host(ad.FinalURL); h != "" {
			hosts[h] = true
		}
	}
	mixed := len(hosts) > 1

	score := 100 - float64(duplicates)*d.DuplicateKeyword - float64(zeroBids)*d.ZeroBid - float64(invalidMatch)*d.InvalidMatchType
	if mixed {
		score -= d.MixedDomains
	}

	r := dimensionResult{
		score: score,
		details: map[string]interface{}{
			"duplicate_keywords":   duplicates,
			"zero_bid_keywords":    zeroBids,
			"invalid_match_types":  invalidMatch,
			"final_url_domains":    sortedSet(hosts),
			"mixed_final_url_host": mixed,
		},
	}
	if duplicates > 0 {
		r.recs = append(r.recs, "Remove duplicate keywords")
	}
	if zeroBids > 0 {
		r.recs = append(r.recs, "Set a bid on every keyword")
	}
	if invalidMatch > 0 {
		r.recs = append(r.recs, "Use EXACT, PHRASE or BROAD match types only")
	}
	if mixed {
		r.recs = append(r.recs, "Point all ads to the same landing domain")
	}
	return r
}

// ratingPoints maps a metric band to effectiveness points
var ratingPoints = map[engineconfig.Rating]float64{
	engineconfig.RatingExcellent: 100,
	engineconfig.RatingGood:      85,
	engineconfig.RatingFair:      65,
	engineconfig.RatingPoor:      35,
}

// noDataEffectiveness is the effectiveness score of a campaign without performance data
const noDataEffectiveness = 50

// effectiveness: mean band points of the known campaign metrics
func (a *Assessor) effectiveness(s *subject) dimensionResult {
	th := a.cfg.Thresholds
	m := s.metrics
	ratings := make(map[string]interface{})
	var sum float64
	var n int

	rate := func(name string, band engineconfig.Band, v float64, known bool) {
		if !known {
			return
		}
		rt := band.Rate(v)
		ratings[name] = string(rt)
		sum += ratingPoints[rt]
		n++
	}
	rate(contracts.MetricCTR, th.CTR, m.CTR, m.Impressions > 0)
	rate(contracts.MetricConversionRate, th.ConversionRate, m.ConversionRate, m.Clicks > 0)
	rate(contracts.MetricQualityScore, th.QualityScore, m.QualityScore, m.QualityScore > 0)
	rate(contracts.MetricImpressionShare, th.ImpressionShare, m.ImpressionShare, m.ImpressionShare > 0)

	if n == 0 {
		return dimensionResult{
			score:   noDataEffectiveness,
			details: map[string]interface{}{"ratings": ratings},
			recs:    []string{"Collect performance data before judging effectiveness"},
		}
	}

	r := dimensionResult{
		score:   sum / float64(n),
		details: map[string]interface{}{"ratings": ratings},
	}
	for _, name := range []string{contracts.MetricCTR, contracts.MetricConversionRate, contracts.MetricQualityScore, contracts.MetricImpressionShare} {
		if ratings[name] == string(engineconfig.RatingPoor) {
			r.recs = append(r.recs, fmt.Sprintf("Improve %s, currently below the poor threshold", strings.ReplaceAll(name, "_", " ")))
		}
	}
	return r
}

// compliance: policy patterns in ad copy
func (a *Assessor) compliance(s *subject) dimensionResult {
	d := a.cfg.Quality.Deductions
	var punctuation, caps, superlatives int

	for _, ad := range s.campaign.Ads {
		for _, text := range append(append([]string{}, ad.Headlines...), ad.Descriptions...) {
			if excessivePunctuation.MatchString(text) {
				punctuation++
			}
			if shoutingWord.MatchString(text) {
				caps++
			}
			if superlativeClaim.MatchString(text) {
				superlatives++
			}
		}
	}

	r := dimensionResult{
		score: 100 - float64(punctuation)*d.Punctuation - float64(caps)*d.Capitalization - float64(superlatives)*d.Superlative,
		details: map[string]interface{}{
			"excessive_punctuation":    punctuation,
			"excessive_capitalization": caps,
			"superlative_claims":       superlatives,
		},
	}
	if punctuation > 0 {
		r.recs = append(r.recs, "Use at most one exclamation mark per asset")
	}
	if caps > 0 {
		r.recs = append(r.recs, "Avoid words in all capital letters")
	}
	if superlatives > 0 {
		r.recs = append(r.recs, "Remove unsubstantiated superlative claims or add third party proof")
	}
	return r
}

// performance potential: structural limits on growth
func (a *Assessor) performance(s *subject) dimensionResult {
	d := a.cfg.Quality.Deductions
	th := a.cfg.Thresholds
	c := s.campaign
	var limits []string
	score := 100.0

	if c.BiddingStrategy == nil || strings.TrimSpace(c.BiddingStrategy.Type) == "" {
		score -= d.NoBiddingStrategy
		limits = append(limits, "no_bidding_strategy")
	}
	if budget := budgetOf(c); budget > 0 && s.spend > a.cfg.Budget.SpendRatio*budget {
		score -= d.BudgetLimited
		limits = append(limits, "budget_limited")
	}
	if qs := s.metrics.QualityScore; qs > 0 && th.QualityScore.IsPoor(qs) {
		score -= d.PoorQualityScore
		limits = append(limits, "poor_quality_score")
	}
	if is := s.metrics.ImpressionShare; is > 0 && th.ImpressionShare.IsPoor(is) {
		score -= d.PoorImpressionShare
		limits = append(limits, "poor_impression_share")
	}
	if len(c.Keywords) < a.cfg.Orchestrator.MinKeywords {
		score -= d.FewKeywords
		limits = append(limits, "few_keywords")
	}
	if len(c.Ads) < a.cfg.Orchestrator.MinAds {
		score -= d.FewAds
		limits = append(limits, "few_ads")
	}

	r := dimensionResult{
		score:   score,
		details: map[string]interface{}{"limiting_factors": nonNil(limits)},
	}
	for _, l := range limits {
		switch l {
		case "no_bidding_strategy":
			r.recs = append(r.recs, "Choose a bidding strategy that matches the campaign goal")
		case "budget_limited":
			r.recs = append(r.recs, "Raise the daily budget; spend is at the cap")
		case "poor_quality_score":
			r.recs = append(r.recs, "Raise keyword quality scores to lower cost per click")
		case "poor_impression_share":
			r.recs = append(r.recs, "Increase bids or budget to win more eligible auctions")
		case "few_keywords":
			r.recs = append(r.recs, fmt.Sprintf("Expand the keyword list to at least %d keywords", a.cfg.Orchestrator.MinKeywords))
		case "few_ads":
			r.recs = append(r.recs, fmt.Sprintf("Run at least %d ads per campaign", a.cfg.Orchestrator.MinAds))
		}
	}
	return r
}

func budgetOf(c *contracts.CampaignInput) float64 {
	if c.Budget == nil {
		return 0
	}
	return *c.Budget
}

// tokens returns the lower case words of text
func tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// host returns the lower case host of a URL, or "" when it has none
func host(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
