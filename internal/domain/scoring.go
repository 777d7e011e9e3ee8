package domain

// Detection labels, in the order they are reported.
const (
	LabelPaywall      = "paywall"
	LabelComparison   = "comparison"
	LabelListicle     = "listicle"
	LabelPoorLength   = "poor_length"
	LabelInvalidInput = "invalid_input"
)

// DetectionResult aggregates all detectors for one item.
type DetectionResult struct {
	IsPaywalled        bool     `json:"is_paywalled"`
	IsComparison       bool     `json:"is_comparison"`
	IsListicle         bool     `json:"is_listicle"`
	PaywallPenalty     float64  `json:"paywall_penalty"`
	ComparisonPenalty  float64  `json:"comparison_penalty"`
	ListiclePenalty    float64  `json:"listicle_penalty"`
	ContentLengthScore float64  `json:"content_length_score"`
	Detections         []string `json:"detections"`
	Suitable           bool     `json:"suitable"`
}

// ScoredItem pairs an item with its quality score in [0,1].
type ScoredItem struct {
	Item  ContentItem
	Score float64
}

// TopicScore is the weighted breakdown produced by the topic scorer.
type TopicScore struct {
	Engagement   float64 `json:"engagement"`
	Monetization float64 `json:"monetization"`
	Recency      float64 `json:"recency"`
	TitleQuality float64 `json:"title_quality"`
	Total        float64 `json:"total"`
}

// RankedTopic is one entry of the topic ranking.
type RankedTopic struct {
	Item  ContentItem `json:"item"`
	Score TopicScore  `json:"score"`
}
