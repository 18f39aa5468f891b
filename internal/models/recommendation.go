package models

// Recommendations is the advice returned by the recommendation service,
// layered on top of an AnalysisResult.
type Recommendations struct {
	Recommendations RecommendationTiers `json:"recommendations"`
	WealthForecasts RecommendedForecasts `json:"wealthForecasts"`
}

// RecommendedForecasts are wealth projections assuming a tier of advice is followed.
type RecommendedForecasts struct {
	WithRecommendations ForecastTiers `json:"withRecommendations"`
}

// ForecastTiers holds one projection series per recommendation tier.
type ForecastTiers struct {
	Easy        []WealthForecast `json:"easy"`
	Moderate    []WealthForecast `json:"moderate"`
	Significant []WealthForecast `json:"significant"`
}

// RecommendationTiers groups advice by effort.
type RecommendationTiers struct {
	Easy        []Recommendation `json:"easy"`
	Moderate    []Recommendation `json:"moderate"`
	Significant []Recommendation `json:"significant"`
}

// Count returns the number of recommendations across all tiers.
func (t RecommendationTiers) Count() int {
	return len(t.Easy) + len(t.Moderate) + len(t.Significant)
}

// Recommendation is one actionable suggestion.
type Recommendation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      Impact   `json:"impact"`
	Steps       []string `json:"steps"`
	Links       []Link   `json:"links"`
}

// Impact is the estimated saving of a recommendation.
type Impact struct {
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// Link is a reference attached to a recommendation.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
