package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentRanker/internal/dedup"
	"ContentRanker/internal/domain"
	"ContentRanker/internal/metrics"
)

var body = strings.Repeat("Useful reporting on local events. ", 20)

func record(title, source string) map[string]any {
	return map[string]any{"title": title, "content": body, "source": source}
}

type fakeStore struct {
	mu          sync.Mutex
	seen        map[string]bool
	remembered  []string
	seenErr     error
	rememberErr error
}

func (f *fakeStore) Seen(_ context.Context, fps []string) (map[string]bool, error) {
	if f.seenErr != nil {
		return nil, f.seenErr
	}
	out := map[string]bool{}
	for _, fp := range fps {
		if f.seen[fp] {
			out[fp] = true
		}
	}
	return out, nil
}

func (f *fakeStore) Remember(_ context.Context, fps []string) error {
	if f.rememberErr != nil {
		return f.rememberErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remembered = append(f.remembered, fps...)
	return nil
}

type fakeQueue struct {
	messages [][]byte
	failAt   int
}

func (f *fakeQueue) Send(_ context.Context, message []byte) error {
	if f.failAt > 0 && len(f.messages)+1 == f.failAt {
		return errors.New("queue unavailable")
	}
	f.messages = append(f.messages, message)
	return nil
}

type fakeRuns struct {
	runs []domain.RunRecord
	err  error
}

func (f *fakeRuns) SaveRun(_ context.Context, run domain.RunRecord) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

type fakeSource struct {
	batch []any
	err   error
}

func (f *fakeSource) FetchBatch(context.Context, time.Time) ([]any, error) {
	return f.batch, f.err
}

func TestValidateItems(t *testing.T) {
	raw := []any{
		record("ok", "A"),
		"not a dict",
		map[string]any{"title": "", "content": "x"},
		map[string]any{"title": "t", "content": 5},
		record("also ok", "B"),
	}

	valid, errs := ValidateItems(raw)

	require.Len(t, valid, 2)
	assert.Equal(t, "ok", valid[0].Title)
	assert.Equal(t, "also ok", valid[1].Title)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "item 1")
	assert.Contains(t, errs[2], "content")

	valid, errs = ValidateItems(nil)
	assert.Empty(t, valid)
	assert.Equal(t, []string{ErrNotAList.Error()}, errs)
}

func TestValidateItem(t *testing.T) {
	_, err := ValidateItem(map[string]any{"content": "x"})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = ValidateItem(42)
	assert.ErrorIs(t, err, domain.ErrNotARecord)

	item, err := ValidateItem(record("t", "A"))
	require.NoError(t, err)
	assert.Equal(t, "A", item.Source)
}

func TestAddScoreMetadata(t *testing.T) {
	items := []domain.ContentItem{
		{Title: "scored", Content: "c", Metadata: map[string]any{"k": "v"}},
		{Title: "unscored", Content: "c"},
		{Title: "", Content: "broken"},
	}
	scored := []domain.ScoredItem{{Item: items[0], Score: 0.123456}}

	out := AddScoreMetadata(items, scored)

	require.Len(t, out, 2)
	require.NotNil(t, out[0].QualityScore)
	assert.Equal(t, 0.123, *out[0].QualityScore)
	assert.Nil(t, out[1].QualityScore)
	assert.Nil(t, items[0].QualityScore, "input must not be mutated")

	out[0].Metadata["k"] = "changed"
	assert.Equal(t, "v", items[0].Metadata["k"])

	encoded, err := json.Marshal(out[0])
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"_quality_score":0.123`)
}

func TestProcessItemsAllInvalid(t *testing.T) {
	result := ProcessItems(context.Background(), []any{"not a dict", 123}, &fakeStore{}, domain.DefaultProcessingConfig())

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Empty(t, result.Items)
	assert.Equal(t, 2, result.Stats.Input)
	assert.Equal(t, 0, result.Stats.Valid)
	assert.Equal(t, []string{domain.FilterInvalid}, result.Stats.FilteredBy)
	assert.Equal(t, 2, result.Stats.Skipped[domain.SkipNotARecord])
}

func TestProcessItemsNilBatch(t *testing.T) {
	result := ProcessItems(context.Background(), nil, nil, domain.DefaultProcessingConfig())

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, []string{ErrNotAList.Error()}, result.Stats.Errors)
}

func TestProcessItemsHonorsZeroThreshold(t *testing.T) {
	raw := []any{map[string]any{"title": "Short note", "content": strings.Repeat("x", 200), "source": "A"}}

	result := ProcessItems(context.Background(), raw, nil, domain.ProcessingConfig{MinQualityScore: 0})

	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.Stats.Ranked)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.Items[0].QualityScore)
	assert.InDelta(t, 0.4, *result.Items[0].QualityScore, 1e-9)
	assert.Contains(t, result.Stats.FilteredBy, domain.LabelPoorLength)
	assert.NotContains(t, result.Stats.FilteredBy, domain.FilterBelowThreshold)
}

func TestProcessItemsStages(t *testing.T) {
	raw := []any{
		record("Council approves new park", "A"),
		record("Council approves new park", "B"),
		map[string]any{"title": "Markets wrap", "content": body, "source": "C", "url": "https://www.wsj.com/x"},
		map[string]any{"title": "Brief", "content": "too short", "source": "C"},
		record("Top 10 bakeries in town", "D"),
		record("Road works begin on Main Street", "A"),
		record("School opens science lab", "A"),
		record("Library extends hours", "A"),
		"garbage",
	}

	store := &fakeStore{}
	runs := &fakeRuns{}
	p := NewPipeline(PipelineDeps{
		Fingerprints: store,
		Runs:         runs,
		Metrics:      metrics.New(),
	})

	result := p.ProcessItems(context.Background(), raw, domain.ProcessingOverrides{})

	require.Equal(t, domain.StatusSuccess, result.Status)
	stats := result.Stats
	assert.Equal(t, 9, stats.Input)
	assert.Equal(t, 8, stats.Valid)
	assert.Equal(t, 7, stats.Deduplicated)
	assert.Equal(t, 5, stats.Scored)
	assert.Equal(t, 4, stats.Ranked)
	assert.Equal(t, []string{
		domain.FilterInvalid,
		domain.FilterDuplicate,
		domain.LabelPaywall,
		domain.LabelPoorLength,
		domain.LabelListicle,
		domain.FilterBelowThreshold,
		domain.FilterDiversityCap,
	}, stats.FilteredBy)

	perSource := map[string]int{}
	for _, item := range result.Items {
		perSource[item.SourceOrUnknown()]++
		require.NotNil(t, item.QualityScore)
		assert.GreaterOrEqual(t, *item.QualityScore, domain.DefaultMinQualityScore)
	}
	assert.Equal(t, 3, perSource["A"])
	assert.Equal(t, 1, perSource["D"])
	assert.Equal(t, "Top 10 bakeries in town", result.Items[len(result.Items)-1].Title)

	assert.Len(t, store.remembered, 4)
	require.Len(t, runs.runs, 1)
	assert.Equal(t, result.RunID, runs.runs[0].ID)
	assert.Len(t, runs.runs[0].Items, 4)
}

func TestProcessItemsOverrides(t *testing.T) {
	raw := []any{record("One", "A"), record("Two", "B"), record("Three", "C")}
	p := NewPipeline(PipelineDeps{})

	one := 1
	result := p.ProcessItems(context.Background(), raw, domain.ProcessingOverrides{MaxResults: &one})
	assert.Len(t, result.Items, 1)
	assert.Contains(t, result.Stats.FilteredBy, domain.FilterMaxResults)

	high := 0.99
	result = p.ProcessItems(context.Background(), raw, domain.ProcessingOverrides{MinQualityScore: &high})
	assert.Equal(t, domain.StatusSuccess, result.Status, "filtering everything is still a success")
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Stats.Scored)
}

func TestProcessItemsCrossBatch(t *testing.T) {
	seenFP := dedup.HashContent("Old story", body)
	store := &fakeStore{seen: map[string]bool{seenFP: true}}

	result := ProcessItems(context.Background(), []any{record("Old story", "A"), record("New story", "A")}, store, domain.DefaultProcessingConfig())

	require.Equal(t, domain.StatusSuccess, result.Status)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "New story", result.Items[0].Title)
	assert.Equal(t, 1, result.Stats.Deduplicated)
	assert.Contains(t, result.Stats.FilteredBy, domain.FilterSeenBefore)
}

func TestProcessItemsFailOpen(t *testing.T) {
	store := &fakeStore{seenErr: errors.New("redis down"), rememberErr: errors.New("redis down")}
	runs := &fakeRuns{err: errors.New("db down")}
	p := NewPipeline(PipelineDeps{Fingerprints: store, Runs: runs, Metrics: metrics.New()})

	result := p.ProcessItems(context.Background(), []any{record("Story", "A"), record("Story", "A")}, domain.ProcessingOverrides{})

	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Stats.Deduplicated)
}

func TestEmitToProcessor(t *testing.T) {
	score := 0.812
	items := []domain.ContentItem{
		{Title: "First", Content: "body", Source: "A", QualityScore: &score, Metadata: map[string]any{"lang": "en"}},
		{Title: "", Content: "skipped"},
		{Title: "Second", Content: "body"},
	}

	ok, msg := EmitToProcessor(context.Background(), items, nil)
	assert.False(t, ok)
	assert.Contains(t, msg, "not configured")

	queue := &fakeQueue{}
	ok, msg = EmitToProcessor(context.Background(), items, queue)
	require.True(t, ok)
	assert.Equal(t, "Emitted 2 items", msg)
	require.Len(t, queue.messages, 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(queue.messages[0], &decoded))
	assert.Equal(t, "First", decoded["title"])
	assert.Equal(t, "body", decoded["content"])
	assert.Equal(t, 0.812, decoded["_quality_score"])
	assert.NotEmpty(t, decoded["timestamp"])
	assert.NotEmpty(t, decoded["id"])

	failing := &fakeQueue{failAt: 2}
	ok, msg = EmitToProcessor(context.Background(), items, failing)
	assert.False(t, ok)
	assert.Contains(t, msg, "sent 1")
}

func TestProcessSource(t *testing.T) {
	queue := &fakeQueue{}
	fixed := time.Date(2025, time.May, 5, 6, 0, 0, 0, time.UTC)
	p := NewPipeline(PipelineDeps{
		Source: &fakeSource{batch: []any{record("Harbour reopens", "A")}},
		Queue:  queue,
		Now:    func() time.Time { return fixed },
	})

	result, err := p.ProcessSource(context.Background(), fixed)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	require.Len(t, queue.messages, 1)
	assert.Contains(t, string(queue.messages[0]), fixed.Format(time.RFC3339))

	_, err = NewPipeline(PipelineDeps{Source: &fakeSource{err: errors.New("boom")}}).ProcessSource(context.Background(), fixed)
	assert.ErrorContains(t, err, "fetch batch")

	_, err = NewPipeline(PipelineDeps{}).ProcessSource(context.Background(), fixed)
	assert.Error(t, err)
}

type immediateDriver struct {
	triggers []time.Time
	stopped  bool
}

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	for _, t := range d.triggers {
		job(t)
	}
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipeline(t *testing.T) {
	queue := &fakeQueue{}
	var batch []any
	for i := range 3 {
		batch = append(batch, record(fmt.Sprintf("Story %d", i), fmt.Sprintf("S%d", i)))
	}
	p := NewPipeline(PipelineDeps{Source: &fakeSource{batch: batch}, Queue: queue})
	driver := &immediateDriver{triggers: []time.Time{time.Now()}}

	s := NewScheduler(driver, p, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Len(t, queue.messages, 3)
	assert.True(t, driver.stopped)
}
