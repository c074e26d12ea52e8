// Package shell supports shell prompt integration: a small status cache so
// prompts stay fast on remote backends, and the init scripts that call it.
package shell

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/chris-regnier/daybook/internal/calendar"
	"github.com/chris-regnier/daybook/internal/entry"
)

const cacheFileName = ".prompt-cache"

// PromptCache holds the cached prompt status.
type PromptCache struct {
	TodayMarked bool      `json:"today_marked"`
	Streak      int       `json:"streak"`
	Entries     int       `json:"entries"`
	Day         string    `json:"day"`
	Backend     string    `json:"backend"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Compute builds the prompt status for entries as of now.
func Compute(entries []entry.Entry, backend string, now time.Time) *PromptCache {
	todayMarked, streak := calendar.Streak(calendar.MarkedDays(entries), now)
	return &PromptCache{
		TodayMarked: todayMarked,
		Streak:      streak,
		Entries:     len(entries),
		Day:         entry.DayKey(now),
		Backend:     backend,
		UpdatedAt:   now,
	}
}

// CachePath returns the full path to the prompt cache file.
func CachePath(dataDir string) string {
	return filepath.Join(dataDir, cacheFileName)
}

// ReadCache reads the prompt cache from disk. Returns nil if the cache
// does not exist or cannot be parsed.
func ReadCache(dataDir string) *PromptCache {
	data, err := os.ReadFile(CachePath(dataDir))
	if err != nil {
		return nil
	}
	var c PromptCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}

// WriteCache writes the prompt cache to disk.
func WriteCache(dataDir string, c *PromptCache) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(CachePath(dataDir), data, 0o600)
}

// IsFresh reports whether the cache can still be used at now. A cache from
// another day, another backend, or older than ttl is stale.
func (c *PromptCache) IsFresh(backend string, ttl time.Duration, now time.Time) bool {
	if c == nil {
		return false
	}
	if c.Day != entry.DayKey(now) || c.Backend != backend {
		return false
	}
	return now.Sub(c.UpdatedAt) <= ttl
}

// InvalidateCache removes the prompt cache file.
func InvalidateCache(dataDir string) error {
	if err := os.Remove(CachePath(dataDir)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
