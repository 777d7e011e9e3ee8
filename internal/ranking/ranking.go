// Package ranking orders scored items under a per-source diversity cap.
package ranking

import (
	"cmp"
	"math"
	"slices"
	"time"

	"ContentRanker/internal/domain"
	"ContentRanker/internal/scoring"
)

// RankingScoreKey is the metadata key the topic ranker annotates items with.
const RankingScoreKey = "_ranking_score"

// Outcome splits what RankScored dropped by reason.
type Outcome struct {
	Ranked        []domain.ScoredItem
	DiversityCut  int
	MaxResultsCut int
}

// RankItems sorts by score descending, keeps at most maxPerSource items per
// source and at most maxResults overall. Scores are not returned.
func RankItems(scored []domain.ScoredItem, maxResults, maxPerSource int) []domain.ContentItem {
	outcome := RankScored(scored, maxResults, maxPerSource)
	items := make([]domain.ContentItem, len(outcome.Ranked))
	for i, s := range outcome.Ranked {
		items[i] = s.Item
	}
	return items
}

// RankScored is RankItems keeping the scores and drop counts. Ties keep
// their input order. Non-positive limits fall back to the defaults.
func RankScored(scored []domain.ScoredItem, maxResults, maxPerSource int) Outcome {
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}
	if maxPerSource <= 0 {
		maxPerSource = domain.DefaultMaxPerSource
	}

	sorted := slices.Clone(scored)
	slices.SortStableFunc(sorted, func(a, b domain.ScoredItem) int {
		return cmp.Compare(b.Score, a.Score)
	})

	perSource := make(map[string]int)
	diverse := make([]domain.ScoredItem, 0, len(sorted))
	outcome := Outcome{}
	for _, s := range sorted {
		source := s.Item.SourceOrUnknown()
		if perSource[source] >= maxPerSource {
			outcome.DiversityCut++
			continue
		}
		perSource[source]++
		diverse = append(diverse, s)
	}

	if len(diverse) > maxResults {
		outcome.MaxResultsCut = len(diverse) - maxResults
		diverse = diverse[:maxResults]
	}
	outcome.Ranked = diverse
	return outcome
}

// RankTopics scores items with the weighted topic scorer, drops those below
// cfg.MinimumScoreThreshold and returns at most cfg.MaxTopicsOutput entries,
// best first. Each returned item carries its total under RankingScoreKey.
func RankTopics(items []domain.ContentItem, cfg domain.RankingConfig, now time.Time) []domain.RankedTopic {
	scorer := scoring.NewTopicScorer(cfg)

	ranked := make([]domain.RankedTopic, 0, len(items))
	for _, item := range items {
		if !item.Valid() {
			continue
		}
		score := scorer.Score(item, now)
		if score.Total < cfg.MinimumScoreThreshold {
			continue
		}
		ranked = append(ranked, domain.RankedTopic{Item: item, Score: score})
	}

	slices.SortStableFunc(ranked, func(a, b domain.RankedTopic) int {
		return cmp.Compare(b.Score.Total, a.Score.Total)
	})

	limit := cfg.MaxTopicsOutput
	if limit <= 0 {
		limit = domain.DefaultMaxTopicsOutput
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for i := range ranked {
		ranked[i].Item = ranked[i].Item.WithMeta(RankingScoreKey, Round3(ranked[i].Score.Total))
	}
	return ranked
}

// Round3 rounds to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
