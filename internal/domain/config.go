package domain

const (
	DefaultMinQualityScore = 0.6
	DefaultMaxResults      = 20
	DefaultMaxPerSource    = 3
	DefaultScoringWorkers  = 4

	DefaultEngagementWeight      = 0.4
	DefaultMonetizationWeight    = 0.3
	DefaultRecencyWeight         = 0.2
	DefaultTitleQualityWeight    = 0.1
	DefaultMinimumScoreThreshold = 0.1
	DefaultMaxTopicsOutput       = 50
)

// ProcessingConfig drives one ProcessItems run. It is passed by value and
// never changed once a run starts.
type ProcessingConfig struct {
	MinQualityScore float64 `json:"min_quality_score"`
	MaxResults      int     `json:"max_results"`
	MaxPerSource    int     `json:"max_per_source"`
	ScoringWorkers  int     `json:"scoring_workers"`
}

// ProcessingOverrides carries caller overrides; nil fields keep the base value.
type ProcessingOverrides struct {
	MinQualityScore *float64 `json:"min_quality_score,omitempty" yaml:"minQualityScore,omitempty"`
	MaxResults      *int     `json:"max_results,omitempty" yaml:"maxResults,omitempty"`
	MaxPerSource    *int     `json:"max_per_source,omitempty" yaml:"maxPerSource,omitempty"`
	ScoringWorkers  *int     `json:"scoring_workers,omitempty" yaml:"scoringWorkers,omitempty"`
}

// DefaultProcessingConfig returns the documented defaults.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		MinQualityScore: DefaultMinQualityScore,
		MaxResults:      DefaultMaxResults,
		MaxPerSource:    DefaultMaxPerSource,
		ScoringWorkers:  DefaultScoringWorkers,
	}
}

// With applies overrides on top of c and returns the merged config.
func (c ProcessingConfig) With(o ProcessingOverrides) ProcessingConfig {
	if o.MinQualityScore != nil {
		c.MinQualityScore = *o.MinQualityScore
	}
	if o.MaxResults != nil && *o.MaxResults > 0 {
		c.MaxResults = *o.MaxResults
	}
	if o.MaxPerSource != nil && *o.MaxPerSource > 0 {
		c.MaxPerSource = *o.MaxPerSource
	}
	if o.ScoringWorkers != nil && *o.ScoringWorkers > 0 {
		c.ScoringWorkers = *o.ScoringWorkers
	}
	return c
}

// Merge folds other into o; fields set in other win.
func (o ProcessingOverrides) Merge(other ProcessingOverrides) ProcessingOverrides {
	if other.MinQualityScore != nil {
		o.MinQualityScore = other.MinQualityScore
	}
	if other.MaxResults != nil {
		o.MaxResults = other.MaxResults
	}
	if other.MaxPerSource != nil {
		o.MaxPerSource = other.MaxPerSource
	}
	if other.ScoringWorkers != nil {
		o.ScoringWorkers = other.ScoringWorkers
	}
	return o
}

// RankingConfig holds the weights of the topic ranker. Weights are not
// normalized; by convention they sum to 1.
type RankingConfig struct {
	EngagementWeight      float64 `json:"engagement_weight"`
	MonetizationWeight    float64 `json:"monetization_weight"`
	RecencyWeight         float64 `json:"recency_weight"`
	TitleQualityWeight    float64 `json:"title_quality_weight"`
	MinimumScoreThreshold float64 `json:"minimum_score_threshold"`
	MaxTopicsOutput       int     `json:"max_topics_output"`
}

// RankingOverrides carries caller overrides for RankingConfig.
type RankingOverrides struct {
	EngagementWeight      *float64 `json:"engagement_weight,omitempty" yaml:"engagementWeight,omitempty"`
	MonetizationWeight    *float64 `json:"monetization_weight,omitempty" yaml:"monetizationWeight,omitempty"`
	RecencyWeight         *float64 `json:"recency_weight,omitempty" yaml:"recencyWeight,omitempty"`
	TitleQualityWeight    *float64 `json:"title_quality_weight,omitempty" yaml:"titleQualityWeight,omitempty"`
	MinimumScoreThreshold *float64 `json:"minimum_score_threshold,omitempty" yaml:"minimumScoreThreshold,omitempty"`
	MaxTopicsOutput       *int     `json:"max_topics_output,omitempty" yaml:"maxTopicsOutput,omitempty"`
}

// DefaultRankingConfig returns the documented topic ranker defaults.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		EngagementWeight:      DefaultEngagementWeight,
		MonetizationWeight:    DefaultMonetizationWeight,
		RecencyWeight:         DefaultRecencyWeight,
		TitleQualityWeight:    DefaultTitleQualityWeight,
		MinimumScoreThreshold: DefaultMinimumScoreThreshold,
		MaxTopicsOutput:       DefaultMaxTopicsOutput,
	}
}

// With applies overrides on top of c.
func (c RankingConfig) With(o RankingOverrides) RankingConfig {
	if o.EngagementWeight != nil {
		c.EngagementWeight = *o.EngagementWeight
	}
	if o.MonetizationWeight != nil {
		c.MonetizationWeight = *o.MonetizationWeight
	}
	if o.RecencyWeight != nil {
		c.RecencyWeight = *o.RecencyWeight
	}
	if o.TitleQualityWeight != nil {
		c.TitleQualityWeight = *o.TitleQualityWeight
	}
	if o.MinimumScoreThreshold != nil {
		c.MinimumScoreThreshold = *o.MinimumScoreThreshold
	}
	if o.MaxTopicsOutput != nil && *o.MaxTopicsOutput > 0 {
		c.MaxTopicsOutput = *o.MaxTopicsOutput
	}
	return c
}
