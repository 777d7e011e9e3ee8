package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentRanker/internal/domain"
)

var longBody = strings.Repeat("Practical notes on running queues in production. ", 10)

func batchJSON(t *testing.T) string {
	t.Helper()
	items := []any{
		map[string]any{"title": "Running Redis streams in production", "content": longBody, "source": "blog-a", "lang": "en"},
		map[string]any{"title": "Running Redis streams in production", "content": longBody, "source": "blog-b"},
		map[string]any{"title": "Tiny", "content": "short"},
		"garbage",
	}
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	return string(raw)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONTENT_RANKER_CONFIG", "")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRunFromStdin(t *testing.T) {
	out, err := execute(t, batchJSON(t), "run", "--input", "-", "--log-level", "error")
	require.NoError(t, err)

	var result domain.ProcessResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, 4, result.Stats.Input)
	assert.Equal(t, 3, result.Stats.Valid)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "blog-a", result.Items[0].Source)
	assert.Equal(t, "en", result.Items[0].Metadata["lang"])
	require.NotNil(t, result.Items[0].QualityScore)
	assert.InDelta(t, 0.8, *result.Items[0].QualityScore, 1e-9)
}

func TestRunMinScoreFlag(t *testing.T) {
	out, err := execute(t, batchJSON(t), "run", "-i", "-", "--min-score", "0.9", "--log-level", "error")
	require.NoError(t, err)

	var result domain.ProcessResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Items)
	assert.Contains(t, result.Stats.FilteredBy, domain.FilterBelowThreshold)
}

func TestRunWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	output := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(input, []byte(batchJSON(t)), 0o600))

	stdout, err := execute(t, "", "run", "--input", input, "--output", output, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status": "success"`)
}

func TestRunAllInvalidFails(t *testing.T) {
	out, err := execute(t, `[1, 2]`, "run", "--input", "-", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, out, `"status": "error"`)
}

func TestRunEmitWithoutQueue(t *testing.T) {
	_, err := execute(t, batchJSON(t), "run", "--input", "-", "--emit", "--log-level", "error")
	assert.ErrorContains(t, err, "queue client is not configured")
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := execute(t, `{"title": "not a batch"}`, "run", "--input", "-", "--log-level", "error")
	assert.ErrorContains(t, err, "batch must be a JSON array")
}

func TestTopics(t *testing.T) {
	out, err := execute(t, batchJSON(t), "topics", "--log-level", "error")
	require.NoError(t, err)

	var got struct {
		Topics []map[string]any `json:"topics"`
		Errors []string         `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.Topics)
	assert.Contains(t, got.Topics[0], "_ranking_score")
	assert.Equal(t, []string{"item 3: item is not a record"}, got.Errors)
}
