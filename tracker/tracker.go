package tracker

import (
	"context"
	"errors"
	"log/slog"
)

// DefaultChunkSize is how many keys are looked up per backend request.
const DefaultChunkSize = 50

// Ticket is the flat, serialization-friendly metadata for one ticket.
type Ticket struct {
	Key      string   `json:"key"`
	Summary  string   `json:"summary,omitempty"`
	Status   string   `json:"status,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// ErrTicketNotFound indicates a key the tracker does not know.
var ErrTicketNotFound = errors.New("ticket not found")

// Service resolves a batch of ticket keys to metadata. Keys the backend
// does not know are simply absent from the result; only transport-level
// failures return an error.
type Service interface {
	Lookup(ctx context.Context, keys []string) (map[string]Ticket, error)
}

// Batcher chunks key sets across a Service and degrades gracefully:
// failed chunks are logged and reported as misses, never as a lookup
// failure. Context cancellation is the one fatal case, so a shared
// analysis deadline still aborts cleanly.
type Batcher struct {
	svc       Service
	chunkSize int
	logger    *slog.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// NewBatcher wraps a Service with chunked, failure-tolerant lookup.
func NewBatcher(svc Service, opts ...BatcherOption) *Batcher {
	b := &Batcher{
		svc:       svc,
		chunkSize: DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.chunkSize < 1 {
		b.chunkSize = DefaultChunkSize
	}
	return b
}

// WithChunkSize overrides the per-request key count.
func WithChunkSize(n int) BatcherOption {
	return func(b *Batcher) { b.chunkSize = n }
}

// WithLogger overrides the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) { b.logger = logger }
}

// Lookup resolves metadata for the keys, deduplicated, in chunks.
// The returned misses list contains keys the tracker did not return,
// whether unknown or lost to a failed chunk.
func (b *Batcher) Lookup(ctx context.Context, keys []string) (map[string]Ticket, []string, error) {
	found := make(map[string]Ticket)
	var misses []string

	unique := dedupe(keys)
	for start := 0; start < len(unique); start += b.chunkSize {
		end := min(start+b.chunkSize, len(unique))
		chunk := unique[start:end]

		tickets, err := b.svc.Lookup(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			b.logger.Warn("ticket lookup chunk failed, continuing without metadata",
				"keys", len(chunk), "error", err)
			misses = append(misses, chunk...)
			continue
		}

		for _, key := range chunk {
			t, ok := tickets[key]
			if !ok {
				misses = append(misses, key)
				continue
			}
			found[key] = t
		}
	}

	return found, misses, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	var out []string
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
