package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentRanker/internal/config"
	"ContentRanker/internal/ports"
	"ContentRanker/internal/scanner"
)

// StrategySource implements ItemSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// FetchBatch runs each configured site and concatenates their records.
// Records without a string source get the site name.
func (s *StrategySource) FetchBatch(ctx context.Context, at time.Time) ([]any, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch batch", "sites", len(s.sites), "at", at.Format(time.RFC3339))

	var aggregated []any
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Strategy)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		req := scanner.Request{
			At:       at,
			SiteName: site.Name,
			Options:  site.Options,
			Targets:  toTargets(site.Targets),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
		}

		for _, raw := range results {
			record, ok := raw.(map[string]any)
			if !ok || site.Name == "" {
				continue
			}
			if src, ok := record["source"].(string); !ok || src == "" {
				record["source"] = site.Name
			}
		}
		s.debug("site produced items", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

func toTargets(cfg []config.TargetConfig) []scanner.Target {
	targets := make([]scanner.Target, 0, len(cfg))
	for _, t := range cfg {
		targets = append(targets, scanner.Target{Name: t.Name, URL: t.URL})
	}
	return targets
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
