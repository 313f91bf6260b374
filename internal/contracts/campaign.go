package contracts

import "strings"

// MatchType is the keyword match type
type MatchType string

const (
	MatchExact  MatchType = "EXACT"
	MatchPhrase MatchType = "PHRASE"
	MatchBroad  MatchType = "BROAD"
)

// Valid reports whether the match type is one of EXACT, PHRASE, BROAD
func (m MatchType) Valid() bool {
	switch m {
	case MatchExact, MatchPhrase, MatchBroad:
		return true
	}
	return false
}

// CampaignInput is one campaign as handed to the engine (one call = one campaign)
// ⭐ SSOT: 엔진 입력 계약
type CampaignInput struct {
	CampaignID      string            `json:"campaign_id"`
	Name            string            `json:"name"`
	Budget          *float64          `json:"budget,omitempty"` // daily budget
	BiddingStrategy *BiddingStrategy  `json:"bidding_strategy,omitempty"`
	Targeting       *Targeting        `json:"targeting,omitempty"`
	Keywords        []Keyword         `json:"keywords"`
	Ads             []Ad              `json:"ads"`
	Performance     *PerformanceInput `json:"performance,omitempty"`
}

// BiddingStrategy is the campaign bidding block
type BiddingStrategy struct {
	Type       string   `json:"type"`
	TargetCPA  *float64 `json:"target_cpa,omitempty"`
	TargetROAS *float64 `json:"target_roas,omitempty"`
}

// Targeting is the campaign targeting block
type Targeting struct {
	Audiences []string `json:"audiences"`
	Locations []string `json:"locations,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Devices   []string `json:"devices,omitempty"`
}

// IsEmpty reports whether no targeting criterion is set
func (t *Targeting) IsEmpty() bool {
	return t == nil || (len(t.Audiences) == 0 && len(t.Locations) == 0 &&
		len(t.Languages) == 0 && len(t.Devices) == 0)
}

// Keyword is a keyword entity; supplied per call and never persisted by the engine
type Keyword struct {
	Text      string            `json:"text"`
	MatchType MatchType         `json:"match_type"`
	Bid       float64           `json:"bid"`
	Metrics   *PerformanceInput `json:"metrics,omitempty"`
}

// Key is the stable entity key of the keyword ("keyword:<text>|<match>")
func (k Keyword) Key() string {
	return "keyword:" + strings.ToLower(strings.TrimSpace(k.Text)) + "|" + string(k.MatchType)
}

// Ad is an ad entity
type Ad struct {
	ID           string            `json:"id"`
	Headlines    []string          `json:"headlines"`
	Descriptions []string          `json:"descriptions"`
	FinalURL     string            `json:"final_url,omitempty"`
	Metrics      *PerformanceInput `json:"metrics,omitempty"`
}

// Key is the stable entity key of the ad ("ad:<id>")
func (a Ad) Key() string {
	return "ad:" + a.ID
}

// Copy returns all headline and description text joined by spaces
func (a Ad) Copy() string {
	parts := make([]string, 0, len(a.Headlines)+len(a.Descriptions))
	parts = append(parts, a.Headlines...)
	parts = append(parts, a.Descriptions...)
	return strings.Join(parts, " ")
}

// CampaignKey is the stable entity key of a campaign
func CampaignKey(campaignID string) string {
	return "campaign:" + campaignID
}

// KeywordAnalysis pairs a keyword with its canonical metrics
type KeywordAnalysis struct {
	Keyword Keyword          `json:"keyword"`
	Metrics CanonicalMetrics `json:"metrics"`
}

// AdAnalysis pairs an ad with its canonical metrics
type AdAnalysis struct {
	Ad      Ad               `json:"ad"`
	Metrics CanonicalMetrics `json:"metrics"`
}

// AnalysisInput is what every advisor receives
// ⭐ SSOT: S0 → S1 advisor 입력
type AnalysisInput struct {
	Campaign      *CampaignInput
	Metrics       CanonicalMetrics // campaign level
	Keywords      []KeywordAnalysis
	Ads           []AdAnalysis
	Goals         GoalSet
	DailyBudget   float64
	AvgDailySpend float64
}
