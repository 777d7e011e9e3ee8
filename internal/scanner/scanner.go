package scanner

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Target describes one concrete endpoint or file provided by config.
type Target struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	At       time.Time
	SiteName string
	Targets  []Target
	Options  map[string]string
}

// Scanner captures a single collection strategy (JSON batch, feed, etc.).
// Results are raw records; validation happens in the pipeline.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]any, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
