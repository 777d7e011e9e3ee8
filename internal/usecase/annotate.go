package usecase

import (
	"ContentRanker/internal/dedup"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/ranking"
)

// AddScoreMetadata returns clones of items; those found among scored (by
// fingerprint) carry the score rounded to three decimals. Others pass
// through unannotated. Items without title or content are skipped.
func AddScoreMetadata(items []domain.ContentItem, scored []domain.ScoredItem) []domain.ContentItem {
	scores := make(map[string]float64, len(scored))
	for _, s := range scored {
		fp := dedup.Fingerprint(s.Item)
		if fp == "" {
			continue
		}
		if _, ok := scores[fp]; !ok {
			scores[fp] = s.Score
		}
	}

	out := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		fp := dedup.Fingerprint(item)
		if fp == "" {
			continue
		}
		annotated := item.Clone()
		if score, ok := scores[fp]; ok {
			rounded := ranking.Round3(score)
			annotated.QualityScore = &rounded
		}
		out = append(out, annotated)
	}
	return out
}
