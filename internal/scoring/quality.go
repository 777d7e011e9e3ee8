// Package scoring turns detector output and engagement signals into scores.
package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ContentRanker/internal/detector"
	"ContentRanker/internal/domain"
)

const (
	baseQualityScore = 0.7
	// Listicle and comparison penalties are applied at half strength.
	softPenaltyFactor = 0.5
)

// CalculateQualityScore combines detector penalties and the length score
// into [0,1]. det may be nil, in which case detectors run here.
func CalculateQualityScore(item domain.ContentItem, det *domain.DetectionResult) float64 {
	if !item.Valid() {
		return 0
	}

	var res domain.DetectionResult
	if det != nil {
		res = *det
	} else {
		res = detector.DetectItem(item)
	}

	score := baseQualityScore
	if res.IsPaywalled {
		score -= res.PaywallPenalty
	}
	if res.IsListicle {
		score -= softPenaltyFactor * res.ListiclePenalty
	}
	if res.IsComparison {
		score -= softPenaltyFactor * res.ComparisonPenalty
	}
	score += res.ContentLengthScore

	return Clamp(score)
}

// ScoreItems scores items on a bounded worker group, waits for all of them,
// then keeps those at or above cfg.MinQualityScore in input order.
// A cancelled ctx yields an empty result.
func ScoreItems(ctx context.Context, items []domain.ContentItem, cfg domain.ProcessingConfig) []domain.ScoredItem {
	return ScoreDetected(ctx, items, nil, cfg)
}

// ScoreDetected is ScoreItems with precomputed detections aligned with
// items; a nil slice means detectors run per item.
func ScoreDetected(ctx context.Context, items []domain.ContentItem, detections []domain.DetectionResult, cfg domain.ProcessingConfig) []domain.ScoredItem {
	if len(items) == 0 {
		return []domain.ScoredItem{}
	}

	scores := make([]float64, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.ScoringWorkers, 1))

	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var det *domain.DetectionResult
			if detections != nil && i < len(detections) {
				det = &detections[i]
			}
			scores[i] = CalculateQualityScore(items[i], det)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return []domain.ScoredItem{}
	}

	out := make([]domain.ScoredItem, 0, len(items))
	for i, item := range items {
		if !item.Valid() {
			continue
		}
		if scores[i] >= cfg.MinQualityScore {
			out = append(out, domain.ScoredItem{Item: item, Score: scores[i]})
		}
	}
	return out
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
