// Package staging hands results of background retries to the next foreground
// session through well-known durable-store slots.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/moviesync/internal/core/domain"
	"github.com/vietddude/moviesync/internal/infra/storage"
	"github.com/vietddude/moviesync/internal/metrics"
)

// Stager writes and consumes one staged result slot per request class.
type Stager struct {
	store storage.KeyValueStore
}

// NewStager creates a stager over store.
func NewStager(store storage.KeyValueStore) *Stager {
	return &Stager{store: store}
}

// Stage stores data in the slot for class, replacing any earlier result.
func (s *Stager) Stage(ctx context.Context, class domain.RequestClass, data json.RawMessage) error {
	key := class.StagingKey()
	if key == "" {
		return fmt.Errorf("unknown request class %q", class)
	}
	if !json.Valid(data) {
		return fmt.Errorf("staged data for %s is not valid JSON", class)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to stage %s result: %w", class, err)
	}
	metrics.StagedResultsTotal.WithLabelValues(string(class)).Inc()
	return nil
}

// Consume reads and clears the slot for class. It reports false when nothing
// was staged.
func (s *Stager) Consume(ctx context.Context, class domain.RequestClass) (json.RawMessage, bool, error) {
	return s.read(ctx, class, s.store.Take)
}

// Peek reads the slot for class without clearing it.
func (s *Stager) Peek(ctx context.Context, class domain.RequestClass) (json.RawMessage, bool, error) {
	return s.read(ctx, class, s.store.Get)
}

func (s *Stager) read(
	ctx context.Context,
	class domain.RequestClass,
	op func(context.Context, string) ([]byte, error),
) (json.RawMessage, bool, error) {
	key := class.StagingKey()
	if key == "" {
		return nil, false, fmt.Errorf("unknown request class %q", class)
	}
	data, err := op(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read staged %s result: %w", class, err)
	}
	return json.RawMessage(data), true, nil
}
