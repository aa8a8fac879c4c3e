// Package cache keeps parsed datasets keyed by the hash of their source
// bytes, so reloading an unchanged file (or switching back to an earlier
// version) skips parsing and validation.
package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/recera/tmapview/pkg/dataset"
)

// Cache holds parsed datasets
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	maxAge     time.Duration
	strategy   EvictionStrategy
	stats      Stats
	log        zerolog.Logger
	now        func() time.Time
}

// Entry is one cached dataset
type Entry struct {
	Hash        string
	Source      string
	Dataset     *dataset.Dataset
	Created     time.Time
	LastAccess  time.Time
	AccessCount int
	ParseTime   time.Duration
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	EntryCount int
	SavedTime  time.Duration
}

// EvictionStrategy defines how cache entries are removed
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// Config holds cache configuration
type Config struct {
	MaxEntries int           // default 8
	MaxAge     time.Duration // zero keeps entries forever
	Strategy   EvictionStrategy
	Logger     *zerolog.Logger
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{MaxEntries: 8, Strategy: LRU}
}

// New creates a new cache instance
func New(config Config) *Cache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	c := &Cache{
		entries:    make(map[string]*Entry),
		maxEntries: config.MaxEntries,
		maxAge:     config.MaxAge,
		strategy:   config.Strategy,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	if config.Logger != nil {
		c.log = config.Logger.With().Str("component", "cache").Logger()
	}
	return c
}

// Get returns the dataset parsed from bytes with the given hash
func (c *Cache) Get(hash string) (*dataset.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if c.isExpired(e) {
		delete(c.entries, hash)
		c.stats.EntryCount = len(c.entries)
		c.stats.Misses++
		return nil, false
	}
	e.LastAccess = c.now()
	e.AccessCount++
	c.stats.Hits++
	c.stats.SavedTime += e.ParseTime
	return e.Dataset, true
}

// Put stores a parsed dataset under its hash
func (c *Cache) Put(source string, d *dataset.Dataset, parseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[d.Hash]; !ok {
		c.ensureSpace()
	}
	now := c.now()
	c.entries[d.Hash] = &Entry{
		Hash:       d.Hash,
		Source:     source,
		Dataset:    d,
		Created:    now,
		LastAccess: now,
		ParseTime:  parseTime,
	}
	c.stats.EntryCount = len(c.entries)
}

// Load reads path and returns its dataset, parsing only when the content
// changed since it was last cached.
func (c *Cache) Load(path string) (*dataset.Dataset, bool, error) {
	format, err := dataset.FormatOf(path)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s: %w", path, err)
	}

	hash := dataset.Hash(data)
	if d, ok := c.Get(hash); ok {
		c.log.Debug().Str("path", path).Str("hash", hash[:12]).Msg("dataset cache hit")
		return d, true, nil
	}

	start := c.now()
	d, err := dataset.Parse(data, format)
	if err != nil {
		return nil, false, err
	}
	elapsed := c.now().Sub(start)
	c.Put(path, d, elapsed)
	c.log.Debug().Str("path", path).Str("hash", hash[:12]).Dur("parse", elapsed).Msg("dataset parsed")
	return d, false, nil
}

// Delete removes an entry
func (c *Cache) Delete(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hash)
	c.stats.EntryCount = len(c.entries)
}

// InvalidateSource removes every entry loaded from source
func (c *Cache) InvalidateSource(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for hash, e := range c.entries {
		if e.Source == source {
			delete(c.entries, hash)
			count++
		}
	}
	c.stats.EntryCount = len(c.entries)
	return count
}

// Clear removes all cached entries and resets the stats
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.stats = Stats{}
}

// GetStats returns cache statistics
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) isExpired(e *Entry) bool {
	if c.maxAge <= 0 {
		return false
	}
	return c.now().Sub(e.Created) > c.maxAge
}

// ensureSpace evicts until one more entry fits. Caller holds c.mu.
func (c *Cache) ensureSpace() {
	for len(c.entries) >= c.maxEntries && len(c.entries) > 0 {
		var victim *Entry
		for _, e := range c.entries {
			if victim == nil || c.before(e, victim) {
				victim = e
			}
		}
		delete(c.entries, victim.Hash)
		c.stats.Evictions++
		c.log.Debug().Str("source", victim.Source).Msg("dataset evicted")
	}
	c.stats.EntryCount = len(c.entries)
}

// before reports whether a should be evicted ahead of b
func (c *Cache) before(a, b *Entry) bool {
	switch c.strategy {
	case LFU:
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.LastAccess.Before(b.LastAccess)
	case FIFO:
		return a.Created.Before(b.Created)
	default:
		return a.LastAccess.Before(b.LastAccess)
	}
}
