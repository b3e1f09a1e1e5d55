package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key holds no value
	ErrNotFound = errors.New("key not found")
)

// KeyValueStore is the durable key-value store shared by the foreground
// and the background mediator. Values are opaque JSON documents.
type KeyValueStore interface {
	// Get returns the value stored at key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, overwriting any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Take atomically reads and deletes key, or returns ErrNotFound
	Take(ctx context.Context, key string) ([]byte, error)

	// Keys lists the keys starting with prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON decodes the value at key into dest. It reports false when the key is absent.
func GetJSON(ctx context.Context, s KeyValueStore, key string, dest any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, s KeyValueStore, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// TakeJSON atomically reads and deletes key, decoding into dest.
func TakeJSON(ctx context.Context, s KeyValueStore, key string, dest any) (bool, error) {
	data, err := s.Take(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}
