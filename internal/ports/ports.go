package ports

import (
	"context"
	"time"

	"ContentRanker/internal/domain"
)

// ItemSource pulls a raw batch of collected items from upstream collectors.
// Entries are left undecoded so validation can classify malformed ones.
type ItemSource interface {
	FetchBatch(ctx context.Context, at time.Time) ([]any, error)
}

// FingerprintStore remembers fingerprints across batches for deduplication.
type FingerprintStore interface {
	// Seen reports which of the given fingerprints were remembered before.
	Seen(ctx context.Context, fingerprints []string) (map[string]bool, error)
	// Remember records fingerprints so later batches treat them as seen.
	Remember(ctx context.Context, fingerprints []string) error
}

// QueueClient hands one serialized message to the processor queue.
type QueueClient interface {
	Send(ctx context.Context, message []byte) error
}

// RunRepository archives processed batches for audit.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
