package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"ContentRanker/internal/dedup"
	"ContentRanker/internal/detector"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/metrics"
	"ContentRanker/internal/ports"
	"ContentRanker/internal/ranking"
	"ContentRanker/internal/scoring"
)

// PipelineDeps wires all driven adapters into the ranking pipeline. Every
// field is optional.
type PipelineDeps struct {
	Source       ports.ItemSource
	Fingerprints ports.FingerprintStore
	Queue        ports.QueueClient
	Runs         ports.RunRepository
	Metrics      *metrics.Recorder
	Config       domain.ProcessingConfig
	Logger       *slog.Logger
	Now          func() time.Time
}

// Pipeline implements validate → dedupe → detect/score → rank → annotate.
type Pipeline struct {
	source       ports.ItemSource
	fingerprints ports.FingerprintStore
	queue        ports.QueueClient
	runs         ports.RunRepository
	metrics      *metrics.Recorder
	cfg          domain.ProcessingConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewPipeline constructs the orchestration component. A zero Config means
// the documented defaults.
func NewPipeline(deps PipelineDeps) *Pipeline {
	cfg := deps.Config
	if cfg == (domain.ProcessingConfig{}) {
		cfg = domain.DefaultProcessingConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		source:       deps.Source,
		fingerprints: deps.Fingerprints,
		queue:        deps.Queue,
		runs:         deps.Runs,
		metrics:      deps.Metrics,
		cfg:          cfg,
		logger:       logger,
		now:          now,
	}
}

// Config returns the base processing configuration.
func (p *Pipeline) Config() domain.ProcessingConfig {
	return p.cfg
}

// ProcessItems runs one batch with the given external dedup client and config.
// cfg is used as given, so a zero MinQualityScore disables the threshold;
// non-positive limits and worker counts still fall back to their defaults.
func ProcessItems(ctx context.Context, raw []any, client ports.FingerprintStore, cfg domain.ProcessingConfig) domain.ProcessResult {
	p := NewPipeline(PipelineDeps{Fingerprints: client})
	p.cfg = cfg
	return p.ProcessItems(ctx, raw, domain.ProcessingOverrides{})
}

// ProcessItems runs one batch. Only a batch without a single valid item is
// an error; anything filtered later is still a success. Failures of the
// fingerprint store or run archive are logged and ignored.
func (p *Pipeline) ProcessItems(ctx context.Context, raw []any, overrides domain.ProcessingOverrides) domain.ProcessResult {
	started := p.now()
	cfg := p.cfg.With(overrides)

	result := domain.ProcessResult{
		RunID: uuid.NewString(),
		Items: []domain.ContentItem{},
	}
	filtered := &labelSet{}
	stats := &result.Stats
	stats.Input = len(raw)

	valid, errs, skipped := validateBatch(raw)
	stats.Valid = len(valid)
	stats.Errors = errs
	stats.Skipped = skipped
	if len(errs) > 0 {
		filtered.add(domain.FilterInvalid)
	}

	if len(valid) == 0 {
		result.Status = domain.StatusError
		result.Message = fmt.Sprintf("no valid items in batch of %d", stats.Input)
		stats.FilteredBy = filtered.list()
		p.finish(ctx, &result, cfg, started)
		return result
	}

	unique, dropped := dedup.FilterDuplicatesCounted(valid)
	if dropped > 0 {
		filtered.add(domain.FilterDuplicate)
	}
	unique = p.dropSeen(ctx, unique, filtered)
	stats.Deduplicated = len(unique)

	detections := make([]domain.DetectionResult, len(unique))
	for i, item := range unique {
		detections[i] = detector.DetectItem(item)
		for _, label := range detections[i].Detections {
			filtered.add(label)
		}
	}

	scored := scoring.ScoreDetected(ctx, unique, detections, cfg)
	stats.Scored = len(scored)
	if len(scored) < len(unique) {
		filtered.add(domain.FilterBelowThreshold)
	}

	outcome := ranking.RankScored(scored, cfg.MaxResults, cfg.MaxPerSource)
	stats.Ranked = len(outcome.Ranked)
	if outcome.DiversityCut > 0 {
		filtered.add(domain.FilterDiversityCap)
	}
	if outcome.MaxResultsCut > 0 {
		filtered.add(domain.FilterMaxResults)
	}

	ranked := make([]domain.ContentItem, len(outcome.Ranked))
	for i, s := range outcome.Ranked {
		ranked[i] = s.Item
	}
	result.Items = AddScoreMetadata(ranked, outcome.Ranked)
	stats.FilteredBy = filtered.list()

	p.logger.Debug("batch processed",
		"run_id", result.RunID,
		"input", stats.Input,
		"valid", stats.Valid,
		"deduplicated", stats.Deduplicated,
		"scored", stats.Scored,
		"ranked", stats.Ranked,
	)

	p.remember(ctx, result.Items)

	result.Status = domain.StatusSuccess
	result.Message = fmt.Sprintf("Processed %d items, %d ranked", stats.Input, stats.Ranked)
	p.finish(ctx, &result, cfg, started)
	return result
}

// ProcessSource fetches one batch from the configured source, processes it
// and emits the ranked items when a queue is configured.
func (p *Pipeline) ProcessSource(ctx context.Context, at time.Time) (domain.ProcessResult, error) {
	if p.source == nil {
		return domain.ProcessResult{}, fmt.Errorf("item source is not configured")
	}

	raw, err := p.source.FetchBatch(ctx, at)
	if err != nil {
		return domain.ProcessResult{}, fmt.Errorf("fetch batch: %w", err)
	}

	result := p.ProcessItems(ctx, raw, domain.ProcessingOverrides{})
	if result.Status != domain.StatusSuccess || p.queue == nil {
		return result, nil
	}

	ok, msg := p.Emit(ctx, result.Items)
	if !ok {
		return result, fmt.Errorf("emit to processor: %s", msg)
	}
	p.logger.Info("batch emitted", "run_id", result.RunID, "message", msg)
	return result, nil
}

func (p *Pipeline) dropSeen(ctx context.Context, items []domain.ContentItem, filtered *labelSet) []domain.ContentItem {
	if p.fingerprints == nil || len(items) == 0 {
		return items
	}

	fps := make([]string, len(items))
	for i, item := range items {
		fps[i] = dedup.Fingerprint(item)
	}

	seen, err := p.fingerprints.Seen(ctx, fps)
	if err != nil {
		p.logger.Warn("fingerprint lookup failed, using in-batch dedup only", "error", err)
		p.metrics.RecordDependencyError("fingerprints", "seen")
		return items
	}
	if len(seen) == 0 {
		return items
	}

	fresh := make([]domain.ContentItem, 0, len(items))
	for i, item := range items {
		if seen[fps[i]] {
			continue
		}
		fresh = append(fresh, item)
	}
	if len(fresh) < len(items) {
		filtered.add(domain.FilterSeenBefore)
	}
	return fresh
}

func (p *Pipeline) remember(ctx context.Context, items []domain.ContentItem) {
	if p.fingerprints == nil || len(items) == 0 {
		return
	}

	fps := make([]string, 0, len(items))
	for _, item := range items {
		fps = append(fps, dedup.Fingerprint(item))
	}
	if err := p.fingerprints.Remember(ctx, fps); err != nil {
		p.logger.Warn("fingerprint store failed, ranked items not remembered", "error", err)
		p.metrics.RecordDependencyError("fingerprints", "remember")
	}
}

func (p *Pipeline) finish(ctx context.Context, result *domain.ProcessResult, cfg domain.ProcessingConfig, started time.Time) {
	if p.runs != nil {
		err := p.runs.SaveRun(ctx, domain.RunRecord{
			ID:          result.RunID,
			Status:      result.Status,
			Message:     result.Message,
			Stats:       result.Stats,
			Items:       result.Items,
			ProcessedAt: started.UTC(),
		})
		if err != nil {
			p.logger.Warn("archive run failed", "run_id", result.RunID, "error", err)
			p.metrics.RecordDependencyError("runs", "save")
		}
	}

	p.metrics.RecordRun(result.Status, result.Stats, p.now().Sub(started).Seconds())

	if result.Status == domain.StatusError {
		p.logger.Warn("batch rejected", "run_id", result.RunID, "input", result.Stats.Input, "errors", len(result.Stats.Errors))
		return
	}
	p.logger.Info("batch ranked",
		"run_id", result.RunID,
		"ranked", result.Stats.Ranked,
		"min_quality_score", cfg.MinQualityScore,
		"filtered_by", result.Stats.FilteredBy,
	)
}

type labelSet struct {
	labels []string
}

func (s *labelSet) add(label string) {
	if !slices.Contains(s.labels, label) {
		s.labels = append(s.labels, label)
	}
}

func (s *labelSet) list() []string {
	if s.labels == nil {
		return []string{}
	}
	return s.labels
}
