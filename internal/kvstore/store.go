// Package kvstore persists small values with a time to live.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -source=store.go -destination=../mocks/kvstore/mock_store.go -package=mock_kvstore

// Store is a durable key-value store. Get reports ok=false for missing and expired keys.
// A ttl of 0 never expires.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, store Store, key string, v any) (bool, error) {
	value, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(value, v); err != nil {
		return false, fmt.Errorf("json.Unmarshal(%s) > %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, v any, ttl time.Duration) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal(%s) > %w", key, err)
	}
	return store.Set(ctx, key, value, ttl)
}

func expiresAt(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl).UTC()
	return &t
}

func expired(now time.Time, at *time.Time) bool {
	return at != nil && !now.Before(*at)
}
