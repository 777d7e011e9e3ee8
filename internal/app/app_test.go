package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentRanker/internal/config"
	"ContentRanker/internal/domain"
)

func batchFile(t *testing.T) string {
	t.Helper()
	body := `[
		{"title": "Choosing a message broker for small teams", "content": "` + strings.Repeat("Brokers differ in durability and ops cost. ", 12) + `", "source": "blog-a", "url": "https://a.example/broker"},
		{"title": "Short", "content": "too short"}
	]`
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Dedup:     config.DedupConfig{Backend: config.DedupMemory},
		Scheduler: config.SchedulerConfig{CronExpression: "0 6 * * *"},
		Sites: []config.SiteConfig{{
			Name:     "local",
			Strategy: "json",
			Targets:  []config.TargetConfig{{Name: "batch", URL: batchFile(t)}},
		}},
	}
}

func TestRunWithMemoryDedup(t *testing.T) {
	a, err := New(context.Background(), baseConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "blog-a", result.Items[0].Source)

	again, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Items, "second run sees the same fingerprints")
	assert.Contains(t, again.Stats.FilteredBy, domain.FilterSeenBefore)
}

func TestPipelineUsesProcessingConfig(t *testing.T) {
	cfg := baseConfig(t)
	minScore, perSource := 0.25, 2
	cfg.Processing = domain.ProcessingOverrides{MinQualityScore: &minScore, MaxPerSource: &perSource}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	got := a.Pipeline().Config()
	assert.Equal(t, 0.25, got.MinQualityScore)
	assert.Equal(t, 2, got.MaxPerSource)
	assert.Equal(t, domain.DefaultMaxResults, got.MaxResults)
}

func TestRunWithRedisQueueAndSQLArchive(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := baseConfig(t)
	cfg.Dedup = config.DedupConfig{Backend: config.DedupSQL}
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}
	cfg.Redis = config.RedisConfig{URL: "redis://" + mr.Addr()}
	cfg.Queue = config.QueueConfig{Enabled: true, Stream: "ranked"}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	entries, err := mr.Stream("ranked")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRedisDedupBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := baseConfig(t)
	cfg.Dedup = config.DedupConfig{Backend: config.DedupRedis, KeyPrefix: "fp:", TTL: time.Hour}
	cfg.Redis = config.RedisConfig{URL: "redis://" + mr.Addr()}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)
}

func TestNewRejectsBadDedupConfig(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Dedup.Backend = config.DedupSQL
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "requires database.dsn")

	cfg.Dedup.Backend = "etcd"
	_, err = New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown dedup backend")
}

func TestRankTopicsUsesConfiguredWeights(t *testing.T) {
	cfg := baseConfig(t)
	one := 1.0
	zero := 0.0
	cfg.Ranking = domain.RankingOverrides{
		EngagementWeight:      &zero,
		MonetizationWeight:    &zero,
		RecencyWeight:         &zero,
		TitleQualityWeight:    &one,
		MinimumScoreThreshold: &zero,
	}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	topics := a.RankTopics([]domain.ContentItem{
		{Title: "x", Content: "body"},
		{Title: "A perfectly reasonable headline for a topic", Content: "body"},
	}, time.Now())
	require.Len(t, topics, 2)
	assert.Equal(t, "A perfectly reasonable headline for a topic", topics[0].Item.Title)
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Metrics.Addr = "127.0.0.1:0"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
