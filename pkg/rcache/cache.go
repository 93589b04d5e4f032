// Package rcache implements the storage facade's read-through disk cache:
// a bbolt-backed store keyed by backend object key, holding both the
// decoded metadata record and the raw (still-transformed) payload bytes,
// with an approximate-LFU eviction policy bounded by a configured byte
// budget.
package rcache

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/benji-go/corestore/pkg/corelog"
	"github.com/benji-go/corestore/pkg/coremetrics"
	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/types"
)

var (
	bucketData = []byte("data")
	bucketMeta = []byte("meta")
)

// Config sizes and locates the on-disk cache. Directory and MaximumSize
// must both be set or both be zero; a partial configuration is rejected by
// New as corestore.ErrConfiguration, the same all-or-none rule the facade
// applies to the HMAC KDF group.
type Config struct {
	Directory   string
	MaximumSize int64 // bytes; budgets payload size only, not metadata
}

func (c Config) enabled() bool { return c.Directory != "" || c.MaximumSize != 0 }

func (c Config) validate() error {
	if c.Directory == "" && c.MaximumSize != 0 {
		return fmt.Errorf("rcache: %w: maximumSize set without directory", corestore.ErrConfiguration)
	}
	if c.Directory != "" && c.MaximumSize == 0 {
		return fmt.Errorf("rcache: %w: directory set without maximumSize", corestore.ErrConfiguration)
	}
	return nil
}

// entry tracks one cached object's recency and access frequency. golang-lru
// gives us recency (LRU) for free but has no frequency-aware eviction mode
// (only LRU, 2Q, and ARC); approximate LFU the way Redis's allkeys-lfu
// policy does it, layering a saturating access counter on top of an LRU
// structure and using the counter as the primary eviction signal, with LRU
// order as the tie-breaker among equally-cold entries.
type entry struct {
	size int64
	hits uint32
}

// Cache is a read-through disk cache in front of a storage backend. It is
// safe for concurrent use.
type Cache struct {
	db *bolt.DB

	mu       sync.Mutex
	recency  *lru.Cache[string, struct{}] // insertion/access order, for tie-breaking
	entries  map[string]*entry
	curBytes int64
	maxBytes int64

	enabled bool

	hits, misses, evictions uint64
}

// New opens (creating if necessary) the cache database under cfg.Directory.
// If cfg is the zero value, New returns a disabled Cache whose Get always
// misses and whose Put is a no-op — callers need not special-case an
// unconfigured read cache.
func New(cfg Config) (*Cache, error) {
	if !cfg.enabled() {
		return &Cache{enabled: false}, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cfg.Directory, "rcache.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("rcache: open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketData); err != nil {
			return fmt.Errorf("rcache: create data bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("rcache: create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	// Capacity bounds the recency structure's entry count, not bytes; a
	// generous fixed ceiling keeps it from growing unbounded independent of
	// the byte-budget eviction this package actually enforces.
	recency, err := lru.New[string, struct{}](1 << 20)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("rcache: init recency structure: %w", err)
	}

	c := &Cache{
		db:       db,
		recency:  recency,
		entries:  make(map[string]*entry),
		maxBytes: cfg.MaximumSize,
		enabled:  true,
	}

	if err := c.loadExisting(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewDegraded opens a Cache the way New does, but on failure logs a warning
// and returns a disabled Cache instead of an error — the facade's
// construction path treats a broken read cache as "run uncached", never as
// a fatal startup condition.
func NewDegraded(cfg Config) *Cache {
	c, err := New(cfg)
	if err != nil {
		corelog.WithStorage("rcache").Warn().Err(err).Msg("read cache unavailable, continuing uncached")
		return &Cache{enabled: false}
	}
	return c
}

func (c *Cache) loadExisting() error {
	return c.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		data := tx.Bucket(bucketData)
		return meta.ForEach(func(k, _ []byte) error {
			key := string(k)
			size := int64(len(data.Get(k)))
			c.entries[key] = &entry{size: size}
			c.curBytes += size
			c.recency.Add(key, struct{}{})
			return nil
		})
	})
}

// Enabled reports whether the cache is active.
func (c *Cache) Enabled() bool {
	if c == nil {
		return false
	}
	return c.enabled
}

// Get returns the cached metadata and payload for key. metaHit reports
// whether a metadata record was cached at all; dataHit reports whether the
// payload was also cached (a metadata-only entry is a valid partial hit:
// the facade populates it on a metadata_only read and fills in the payload
// later if a full read occurs).
func (c *Cache) Get(key string) (meta types.Metadata, payload []byte, metaHit bool, dataHit bool) {
	if !c.Enabled() {
		return types.Metadata{}, nil, false, false
	}

	err := c.db.View(func(tx *bolt.Tx) error {
		metaBytes := tx.Bucket(bucketMeta).Get([]byte(key))
		if metaBytes == nil {
			return nil
		}
		if err := json.Unmarshal(metaBytes, &meta); err != nil {
			return fmt.Errorf("rcache: decode cached metadata for %q: %w", key, err)
		}
		metaHit = true
		if data := tx.Bucket(bucketData).Get([]byte(key)); data != nil {
			payload = append(payload, data...)
			dataHit = true
		}
		return nil
	})
	if err != nil {
		corelog.WithStorage("rcache").Warn().Err(err).Str("key", key).Msg("cache entry unreadable, treating as miss")
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		coremetrics.CacheMissesTotal.Inc()
		return types.Metadata{}, nil, false, false
	}

	c.mu.Lock()
	if metaHit {
		if ent, ok := c.entries[key]; ok && ent.hits != ^uint32(0) {
			ent.hits++
		}
		c.recency.Add(key, struct{}{})
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if metaHit {
		coremetrics.CacheHitsTotal.Inc()
	} else {
		coremetrics.CacheMissesTotal.Inc()
	}
	return meta, payload, metaHit, dataHit
}

// Put stores meta under key, evicting the coldest entries first if the new
// entry would exceed the configured byte budget. A nil payload populates
// metadata only, leaving any previously cached payload for key untouched —
// the facade relies on this for a metadata_only read that later turns into
// a full read of the same key.
func (c *Cache) Put(key string, meta types.Metadata, payload []byte) error {
	if !c.Enabled() {
		return nil
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("rcache: encode metadata for %q: %w", key, err)
	}

	var victims []string
	c.mu.Lock()
	if payload != nil {
		size := int64(len(payload))
		if existing, ok := c.entries[key]; ok {
			c.curBytes -= existing.size
		}
		for c.curBytes+size > c.maxBytes && len(c.entries) > 0 {
			victim := c.coldestLocked()
			if victim == "" || victim == key {
				break
			}
			c.removeLocked(victim)
			victims = append(victims, victim)
		}
		hits := uint32(0)
		if existing, ok := c.entries[key]; ok {
			hits = existing.hits
		}
		c.entries[key] = &entry{size: size, hits: hits}
		c.curBytes += size
	} else if _, ok := c.entries[key]; !ok {
		c.entries[key] = &entry{}
	}
	c.recency.Add(key, struct{}{})
	c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		for _, victim := range victims {
			if err := tx.Bucket(bucketMeta).Delete([]byte(victim)); err != nil {
				return fmt.Errorf("rcache: evict metadata for %q: %w", victim, err)
			}
			if err := tx.Bucket(bucketData).Delete([]byte(victim)); err != nil {
				return fmt.Errorf("rcache: evict payload for %q: %w", victim, err)
			}
		}
		if err := tx.Bucket(bucketMeta).Put([]byte(key), metaBytes); err != nil {
			return fmt.Errorf("rcache: write metadata for %q: %w", key, err)
		}
		if payload == nil {
			return nil
		}
		if err := tx.Bucket(bucketData).Put([]byte(key), payload); err != nil {
			return fmt.Errorf("rcache: write payload for %q: %w", key, err)
		}
		return nil
	})
}

// Remove evicts key, if present. It is not an error if key is absent.
func (c *Cache) Remove(key string) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketMeta).Delete([]byte(key)); err != nil {
			return fmt.Errorf("rcache: delete metadata for %q: %w", key, err)
		}
		return tx.Bucket(bucketData).Delete([]byte(key))
	})
}

// coldestLocked returns the key with the lowest hit count, breaking ties by
// recency (the key the underlying LRU would evict next). Callers must hold
// c.mu.
func (c *Cache) coldestLocked() string {
	keys := c.recency.Keys()
	var coldest string
	var coldestHits uint32 = ^uint32(0)
	for _, k := range keys {
		ent, ok := c.entries[k]
		if !ok {
			continue
		}
		if ent.hits < coldestHits {
			coldest = k
			coldestHits = ent.hits
		}
		if coldestHits == 0 {
			break // nothing colder than a never-reaccessed entry
		}
	}
	return coldest
}

func (c *Cache) removeLocked(key string) {
	if ent, ok := c.entries[key]; ok {
		c.curBytes -= ent.size
		delete(c.entries, key)
		c.recency.Remove(key)
		c.evictions++
		coremetrics.CacheEvictionsTotal.Inc()
	}
}

// Close flushes and closes the cache database, logging a final hit/miss
// summary.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	hits, misses, evictions := c.hits, c.misses, c.evictions
	c.mu.Unlock()

	corelog.WithStorage("rcache").Info().
		Uint64("hits", hits).
		Uint64("misses", misses).
		Uint64("evictions", evictions).
		Msg("read cache closing")

	return c.db.Close()
}
