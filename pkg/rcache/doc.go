/*
Package rcache provides a bbolt-backed read-through cache in front of the
storage facade's backend, trading disk space local to the process for
fewer round trips to the object store.

# Architecture

	┌─────────────────── RCACHE ───────────────────┐
	│                                                │
	│  ┌──────────────────────────────────────┐    │
	│  │               Cache                    │    │
	│  │  - File: <directory>/rcache.db        │    │
	│  │  - Keyed by backend object key         │    │
	│  └──────────────────┬─────────────────────┘    │
	│                     │                            │
	│  ┌──────────────────▼─────────────────────┐    │
	│  │            Bucket Structure              │    │
	│  │  ┌────────────────────────────┐         │    │
	│  │  │ meta  (JSON Metadata)      │         │    │
	│  │  │ data  (raw object bytes)   │         │    │
	│  │  └────────────────────────────┘         │    │
	│  └──────────────────┬─────────────────────┘    │
	│                     │                            │
	│  ┌──────────────────▼─────────────────────┐    │
	│  │          Eviction (approximate LFU)       │    │
	│  │  - per-key saturating hit counter         │    │
	│  │  - golang-lru recency structure as        │    │
	│  │    tie-breaker among equal hit counts     │    │
	│  │  - bounded by Config.MaximumSize bytes    │    │
	│  └────────────────────────────────────────┘    │
	│                                                │
	└────────────────────────────────────────────────┘

# Configuration

Config.Directory and Config.MaximumSize must both be set or both left
zero; New rejects a partial configuration with corestore.ErrConfiguration.
A zero Config is valid and yields a permanently disabled Cache, so the
storage facade can hold one unconditionally without special-casing an
unconfigured read cache. The facade's UseReadCache only toggles whether
reads consult an enabled Cache; it cannot enable a disabled one.

NewDegraded wraps New for callers (the facade's constructor) that must
never fail to start over a broken read cache: a bad directory, permission
error, or corrupt database file is logged as a warning and degrades to a
disabled Cache rather than aborting startup.

# Eviction

golang-lru/v2 offers LRU, 2Q, and ARC, none of which are frequency-aware.
Rather than add a second dependency for LFU, entries carry a manual hit
counter and the LRU structure's ordering serves only to break ties among
entries with identical counts — the same approximation Redis's
allkeys-lfu policy makes on top of a clock-based counter.
*/
package rcache
