package handlers

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nhalim/symposium/internal/provider"
)

const (
	providerHealthCacheFilename = "symposium-provider-health.json"
	providerHealthCacheTTL      = 30 * time.Minute
)

// healthCacheEntry is one cached probe outcome. Expiry is fixed when the
// probe is stored, so entries written under an older TTL setting age out on
// their own schedule.
type healthCacheEntry struct {
	Status  provider.HealthStatus `json:"status"`
	Expires time.Time             `json:"expires"`
}

// providerHealthCache persists health probe outcomes across restarts so the
// UI does not trigger a CLI round trip on every page load. Only healthy
// outcomes are served from cache; a failed probe is always re-checked.
type providerHealthCache struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	loaded  bool
	entries map[string]healthCacheEntry
}

func newProviderHealthCache(path string, ttl time.Duration) *providerHealthCache {
	if ttl <= 0 {
		ttl = providerHealthCacheTTL
	}
	return &providerHealthCache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]healthCacheEntry),
	}
}

func defaultProviderHealthCachePath() string {
	return filepath.Join(os.TempDir(), providerHealthCacheFilename)
}

// GetFresh returns the cached status for a provider if it is healthy and
// unexpired. Anything else is a miss.
func (c *providerHealthCache) GetFresh(name string) (provider.HealthStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoaded()
	entry, ok := c.entries[name]
	if !ok || !entry.Status.Available {
		return provider.HealthStatus{}, false
	}
	if !time.Now().Before(entry.Expires) {
		delete(c.entries, name)
		return provider.HealthStatus{}, false
	}
	return entry.Status, true
}

// Set stores a probe outcome and persists the cache, dropping any entries
// that have already expired.
func (c *providerHealthCache) Set(name string, status provider.HealthStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoaded()
	c.entries[name] = healthCacheEntry{
		Status:  status,
		Expires: time.Now().Add(c.ttl),
	}
	c.prune()
	c.persist()
}

// prune removes expired entries so a renamed or retired provider does not
// linger in the cache file forever. Callers hold the lock.
func (c *providerHealthCache) prune() {
	now := time.Now()
	for name, entry := range c.entries {
		if !now.Before(entry.Expires) {
			delete(c.entries, name)
		}
	}
}

func (c *providerHealthCache) ensureLoaded() {
	if c.loaded {
		return
	}
	c.loaded = true

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read provider health cache", "path", c.path, "error", err)
		}
		return
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		slog.Warn("Failed to parse provider health cache", "path", c.path, "error", err)
		c.entries = make(map[string]healthCacheEntry)
	}
	c.prune()
}

func (c *providerHealthCache) persist() {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		slog.Warn("Failed to create provider health cache directory", "path", c.path, "error", err)
		return
	}

	payload, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode provider health cache", "path", c.path, "error", err)
		return
	}

	if err := os.WriteFile(c.path, payload, 0o644); err != nil {
		slog.Warn("Failed to write provider health cache", "path", c.path, "error", err)
	}
}
