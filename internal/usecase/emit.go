package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ContentRanker/internal/domain"
	"ContentRanker/internal/ports"
)

// processorMessage is the payload the downstream processor consumes.
type processorMessage struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Source       string         `json:"source,omitempty"`
	URL          string         `json:"url,omitempty"`
	QualityScore *float64       `json:"_quality_score,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    string         `json:"timestamp"`
}

// EmitToProcessor sends every item with title and content to queue, one
// message each. It stops at the first send failure.
func EmitToProcessor(ctx context.Context, items []domain.ContentItem, queue ports.QueueClient) (bool, string) {
	sent, err := emit(ctx, items, queue, time.Now)
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("Emitted %d items", sent)
}

// Emit is EmitToProcessor over the pipeline's queue.
func (p *Pipeline) Emit(ctx context.Context, items []domain.ContentItem) (bool, string) {
	sent, err := emit(ctx, items, p.queue, p.now)
	p.metrics.RecordEmitted(sent)
	if err != nil {
		p.logger.Error("emit to processor failed", "sent", sent, "error", err)
		p.metrics.RecordDependencyError("queue", "send")
		return false, err.Error()
	}
	return true, fmt.Sprintf("Emitted %d items", sent)
}

func emit(ctx context.Context, items []domain.ContentItem, queue ports.QueueClient, now func() time.Time) (int, error) {
	if queue == nil {
		return 0, fmt.Errorf("queue client is not configured")
	}

	sent := 0
	for i, item := range items {
		if !item.Valid() {
			continue
		}

		payload, err := json.Marshal(processorMessage{
			ID:           uuid.NewString(),
			Title:        item.Title,
			Content:      item.Content,
			Source:       item.Source,
			URL:          item.URL,
			QualityScore: item.QualityScore,
			Metadata:     item.Metadata,
			Timestamp:    now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return sent, fmt.Errorf("encode item %d: %w (sent %d)", i, err, sent)
		}

		if err := queue.Send(ctx, payload); err != nil {
			return sent, fmt.Errorf("emit item %d: %w (sent %d)", i, err, sent)
		}
		sent++
	}
	return sent, nil
}
