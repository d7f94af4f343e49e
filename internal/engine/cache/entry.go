package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheEntry is one cached payload with its expiry.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	Key       string          `json:"key"`
	Label     string          `json:"label,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewCacheEntry stamps data with now and now+ttl.
func NewCacheEntry(key, label string, data json.RawMessage, ttl time.Duration) *CacheEntry {
	now := time.Now().UTC()
	return &CacheEntry{
		Key:       key,
		Label:     label,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the entry is past its expiry.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Age returns the time since the entry was written.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// TimeUntilExpiration returns the remaining lifetime, never negative.
func (e *CacheEntry) TimeUntilExpiration() time.Duration {
	return max(time.Until(e.ExpiresAt), 0)
}

// Decode unmarshals the payload into v.
func (e *CacheEntry) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding cache entry %s: %w", e.Key, err)
	}
	return nil
}
