// Package queue delivers ranked items to the downstream processor.
package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ContentRanker/internal/ports"
)

const (
	// DefaultStream is the stream key used when none is configured.
	DefaultStream = "content:processor"
	payloadField  = "payload"
	defaultMaxLen = 100000
)

// StreamClient appends processor messages to a Redis stream.
type StreamClient struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ ports.QueueClient = (*StreamClient)(nil)

// NewStreamClient wraps a client; maxLen <= 0 uses the default approximate cap.
func NewStreamClient(client *redis.Client, stream string, maxLen int64) *StreamClient {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &StreamClient{client: client, stream: stream, maxLen: maxLen}
}

// Send appends one message under the payload field.
func (c *StreamClient) Send(ctx context.Context, message []byte) error {
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream,
		MaxLen: c.maxLen,
		Approx: true,
		Values: map[string]any{payloadField: string(message)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", c.stream, err)
	}
	return nil
}

// Stream returns the target stream key.
func (c *StreamClient) Stream() string {
	return c.stream
}
