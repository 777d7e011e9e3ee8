// Package source implements item sources over configured scanner strategies.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"ContentRanker/internal/scanner"
)

// ErrBadBatch is returned when a payload is neither an array nor {"items": [...]}.
var ErrBadBatch = errors.New("batch must be a JSON array or an object with an items array")

// ReadBatch decodes raw records, keeping numbers as json.Number. Entries are
// left as decoded so malformed ones reach validation.
func ReadBatch(r io.Reader) ([]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items, nil
		}
	}
	return nil, ErrBadBatch
}

// JSONScanner reads batch files; each target URL is a filesystem path.
type JSONScanner struct{}

var _ scanner.Scanner = JSONScanner{}

// Name identifies the strategy inside the registry.
func (JSONScanner) Name() string {
	return "json"
}

// Scan concatenates the batches of all targets in order.
func (JSONScanner) Scan(ctx context.Context, req scanner.Request) ([]any, error) {
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("no targets provided for site %s", req.SiteName)
	}

	var results []any
	for _, target := range req.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := readFile(target.URL)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target.Name, err)
		}
		results = append(results, batch...)
	}
	return results, nil
}

func readFile(path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()
	return ReadBatch(f)
}
