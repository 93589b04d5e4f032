// Package storage is the facade: it composes the key codec, transform
// pipeline, metadata envelope, throttle, concurrency engine, backend, and
// optional read cache into the save/read/rm/list operations a caller
// actually invokes.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/benji-go/corestore/pkg/backend"
	"github.com/benji-go/corestore/pkg/corelog"
	"github.com/benji-go/corestore/pkg/coremetrics"
	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/engine"
	"github.com/benji-go/corestore/pkg/metadata"
	"github.com/benji-go/corestore/pkg/rcache"
	"github.com/benji-go/corestore/pkg/storekey"
	"github.com/benji-go/corestore/pkg/throttle"
	"github.com/benji-go/corestore/pkg/transform"
	"github.com/benji-go/corestore/pkg/types"
)

// Config sizes and names one storage module. Name labels metrics and log
// lines; it has no bearing on the backend object layout.
type Config struct {
	Name string

	SimultaneousReads  int
	SimultaneousWrites int
	ReadQueueDepth     int
	WriteQueueDepth    int

	BandwidthRead  int // bytes/sec, 0 = unlimited
	BandwidthWrite int

	ConsistencyCheckWrites bool
}

// Storage composes the key codec, transform chain, metadata codec,
// throttles, concurrency engine, backend, and optional read cache into the
// operations a caller invokes. The zero value is not usable; build one with
// New.
type Storage struct {
	name string
	log  zerolog.Logger

	backend backend.Backend
	chain   *transform.Chain
	codec   *metadata.Codec

	readThrottle, writeThrottle *throttle.Limiter
	engine                      *engine.Engine
	cache                       *rcache.Cache
	useReadCache                atomic.Bool

	consistencyCheckWrites bool
}

// ReadResult is what a read operation yields: the decoded metadata, and the
// decapsulated payload when the caller asked for more than metadata alone.
type ReadResult struct {
	Data     []byte
	Metadata types.Metadata
}

// New builds a Storage from its already-constructed collaborators. cache
// may be nil or disabled (rcache.Cache's zero behavior); callers that don't
// want a read cache can pass rcache.NewDegraded(rcache.Config{}).
func New(cfg Config, be backend.Backend, chain *transform.Chain, codec *metadata.Codec, cache *rcache.Cache) *Storage {
	s := &Storage{
		name:    cfg.Name,
		log:     corelog.WithStorage(cfg.Name),
		backend: be,
		chain:   chain,
		codec:   codec,

		readThrottle:  throttle.New(cfg.BandwidthRead),
		writeThrottle: throttle.New(cfg.BandwidthWrite),
		engine: engine.New(engine.Config{
			ReadWorkers:     cfg.SimultaneousReads,
			WriteWorkers:    cfg.SimultaneousWrites,
			ReadQueueDepth:  cfg.ReadQueueDepth,
			WriteQueueDepth: cfg.WriteQueueDepth,
		}),
		cache: cache,

		consistencyCheckWrites: cfg.ConsistencyCheckWrites,
	}
	s.useReadCache.Store(true)
	return s
}

// UseReadCache toggles whether reads may be satisfied from the cache
// (population still always happens). It returns the prior value, so a
// caller can restore it after a scoped override.
func (s *Storage) UseReadCache(enable bool) bool {
	return s.useReadCache.Swap(enable)
}

// WaitReads blocks until every submitted async read has finished executing.
func (s *Storage) WaitReads() { s.engine.WaitReads() }

// WaitWrites blocks until every submitted async write has finished executing.
func (s *Storage) WaitWrites() { s.engine.WaitWrites() }

// SaveCompleted returns the next completed async save, in completion order,
// blocking up to timeout.
func (s *Storage) SaveCompleted(timeout time.Duration) (block types.Block, err error, ok bool) {
	r, ok := s.engine.NextWrite(timeout)
	if !ok {
		return types.Block{}, nil, false
	}
	if r.Value != nil {
		block = r.Value.(types.Block)
	}
	return block, r.Err, true
}

// ReadCompleted returns the next completed async read, in completion order,
// blocking up to timeout.
func (s *Storage) ReadCompleted(timeout time.Duration) (result ReadResult, err error, ok bool) {
	r, ok := s.engine.NextRead(timeout)
	if !ok {
		return ReadResult{}, nil, false
	}
	if r.Value != nil {
		result = r.Value.(ReadResult)
	}
	return result, r.Err, true
}

// Close cancels outstanding async jobs, drains completion streams, and
// closes the read cache.
func (s *Storage) Close() error {
	s.engine.Close()
	if s.cache.Enabled() {
		return s.cache.Close()
	}
	return nil
}

// Save persists block's payload, building and writing its sidecar metadata
// alongside it. When sync is false the call returns once the job is
// admitted; the outcome is collected later from SaveCompleted.
func (s *Storage) Save(ctx context.Context, block types.Block, data []byte, sync bool) error {
	key := storekey.BlockKey(block.Uid)
	job := func() (any, error) {
		timer := coremetrics.NewTimer()
		err := s.savePayload(ctx, key, storekey.MetaKey(key), data, block.Size, block.Checksum)
		timer.ObserveDurationVec(coremetrics.SaveDuration, s.name)
		s.recordOutcome("save", err)
		return block, err
	}
	if sync {
		_, err := s.engine.Write(job)
		return err
	}
	return s.engine.SubmitWrite(ctx, job)
}

// Read fetches block's payload (or just its metadata, when metadataOnly is
// set). When sync is false the call returns once the job is admitted; the
// outcome is collected later from ReadCompleted.
func (s *Storage) Read(ctx context.Context, block types.Block, sync, metadataOnly bool) (ReadResult, error) {
	key := storekey.BlockKey(block.Uid)
	job := func() (any, error) {
		timer := coremetrics.NewTimer()
		result, err := s.readPayload(ctx, key, metadataOnly, true)
		timer.ObserveDurationVec(coremetrics.ReadDuration, s.name)
		s.recordOutcome("read", err)
		return result, err
	}
	if sync {
		v, err := s.engine.Read(job)
		if err != nil {
			return ReadResult{}, err
		}
		return v.(ReadResult), nil
	}
	if err := s.engine.SubmitRead(ctx, job); err != nil {
		return ReadResult{}, err
	}
	return ReadResult{}, nil
}

// CheckBlockMetadata verifies meta against block's declared size and
// checksum, and optionally the observed payload length, failing with
// corestore.ErrValueMismatch naming the offending field.
func (s *Storage) CheckBlockMetadata(block types.Block, dataLength *int, meta types.Metadata) error {
	if meta.Size != block.Size {
		return fmt.Errorf("storage: %w: size (metadata %d != block %d)", corestore.ErrValueMismatch, meta.Size, block.Size)
	}
	if dataLength != nil && *dataLength != meta.ObjectSize {
		return fmt.Errorf("storage: %w: object_size (observed %d != metadata %d)", corestore.ErrValueMismatch, *dataLength, meta.ObjectSize)
	}
	if meta.Checksum != block.Checksum {
		return fmt.Errorf("storage: %w: checksum (metadata %q != block %q)", corestore.ErrValueMismatch, meta.Checksum, block.Checksum)
	}
	return nil
}

// Remove deletes block's payload and metadata. corestore.ErrNotFound is
// swallowed on both sides; only unexpected errors are surfaced.
func (s *Storage) Remove(ctx context.Context, uid types.BlockUid) error {
	key := storekey.BlockKey(uid)
	return s.removeObject(ctx, key)
}

// RemoveMany bulk-deletes the payloads, then the metadatas, of every uid in
// uids, returning the subset for which payload deletion failed.
func (s *Storage) RemoveMany(ctx context.Context, uids []types.BlockUid) ([]types.BlockUid, error) {
	keys := make([]string, len(uids))
	metaKeys := make([]string, len(uids))
	byKey := make(map[string]types.BlockUid, len(uids))
	for i, uid := range uids {
		key := storekey.BlockKey(uid)
		keys[i] = key
		metaKeys[i] = storekey.MetaKey(key)
		byKey[key] = uid
	}

	failedKeys, err := s.backend.RmManyObjects(ctx, keys)
	if _, merr := s.backend.RmManyObjects(ctx, metaKeys); merr != nil {
		s.log.Warn().Err(merr).Msg("some metadata deletes failed during bulk remove")
	}

	if s.cache.Enabled() {
		for _, key := range keys {
			if rerr := s.cache.Remove(key); rerr != nil {
				s.log.Warn().Err(rerr).Str("key", key).Msg("failed to evict removed object from read cache")
			}
		}
	}

	if err != nil {
		failed := make([]types.BlockUid, 0, len(failedKeys))
		for _, key := range failedKeys {
			failed = append(failed, byKey[key])
		}
		return failed, fmt.Errorf("storage: %d block(s) failed to delete: %w", len(failed), err)
	}
	return nil, nil
}

// ListBlocks enumerates stored block UIDs, silently skipping any key that
// fails to decode back into a UID (a stray object, or a .meta sidecar).
func (s *Storage) ListBlocks(ctx context.Context) ([]types.BlockUid, error) {
	keys, err := s.backend.ListObjects(ctx, storekey.BlocksPrefix)
	if err != nil {
		return nil, fmt.Errorf("storage: list blocks: %w", err)
	}
	var uids []types.BlockUid
	for _, key := range keys {
		if strings.HasSuffix(key, storekey.MetaSuffix) {
			continue
		}
		uid, err := storekey.KeyToBlockUid(key)
		if err != nil {
			continue
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

// ListVersions enumerates stored version UIDs, with the same stray-key
// tolerance as ListBlocks.
func (s *Storage) ListVersions(ctx context.Context) ([]types.VersionUid, error) {
	keys, err := s.backend.ListObjects(ctx, storekey.VersionsPrefix)
	if err != nil {
		return nil, fmt.Errorf("storage: list versions: %w", err)
	}
	var uids []types.VersionUid
	for _, key := range keys {
		if strings.HasSuffix(key, storekey.MetaSuffix) {
			continue
		}
		uid, err := storekey.KeyToVersionUid(key)
		if err != nil {
			continue
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

// SaveVersion persists text under uid. Unless overwrite is set, an existing
// version at uid fails with corestore.ErrAlreadyExists.
func (s *Storage) SaveVersion(ctx context.Context, uid types.VersionUid, text string, overwrite bool) error {
	key := storekey.VersionKey(uid)
	metaKey := storekey.MetaKey(key)

	if !overwrite {
		if _, err := s.backend.ReadObject(ctx, key); err == nil {
			return fmt.Errorf("storage: %w: version %s", corestore.ErrAlreadyExists, uid.Readable())
		} else if !errors.Is(err, corestore.ErrNotFound) {
			return fmt.Errorf("storage: probe existing version %s: %w", uid.Readable(), err)
		}
	}

	data := []byte(text)
	return s.savePayload(ctx, key, metaKey, data, len(data), "")
}

// ReadVersion fetches and decapsulates the version stored under uid,
// returning its UTF-8 text.
func (s *Storage) ReadVersion(ctx context.Context, uid types.VersionUid) (string, error) {
	key := storekey.VersionKey(uid)
	result, err := s.readPayload(ctx, key, false, false)
	if err != nil {
		return "", err
	}
	if len(result.Data) != result.Metadata.Size {
		return "", fmt.Errorf("storage: %w: version %s size", corestore.ErrValueMismatch, uid.Readable())
	}
	return string(result.Data), nil
}

// RemoveVersion deletes the version stored under uid, with the same
// NotFound-swallowing behavior as Remove.
func (s *Storage) RemoveVersion(ctx context.Context, uid types.VersionUid) error {
	return s.removeObject(ctx, storekey.VersionKey(uid))
}

func (s *Storage) removeObject(ctx context.Context, key string) error {
	metaKey := storekey.MetaKey(key)

	err := s.backend.RmObject(ctx, key)
	if err != nil && !errors.Is(err, corestore.ErrNotFound) {
		return fmt.Errorf("storage: remove payload: %w", err)
	}
	if err := s.backend.RmObject(ctx, metaKey); err != nil && !errors.Is(err, corestore.ErrNotFound) {
		return fmt.Errorf("storage: remove metadata: %w", err)
	}
	if s.cache.Enabled() {
		if rerr := s.cache.Remove(key); rerr != nil {
			s.log.Warn().Err(rerr).Str("key", key).Msg("failed to evict removed object from read cache")
		}
	}
	return nil
}

// savePayload encapsulates data, builds and writes its sidecar metadata,
// throttles by total bytes moved, best-effort cleans up on partial-write
// failure, and runs the post-write consistency check when configured.
func (s *Storage) savePayload(ctx context.Context, key, metaKey string, data []byte, size int, checksum string) error {
	stored, records := s.chain.Encapsulate(data)
	meta := types.Metadata{
		Size:       size,
		ObjectSize: len(stored),
		Checksum:   checksum,
		Transforms: records,
	}
	metaJSON, err := s.codec.Build(meta)
	if err != nil {
		return fmt.Errorf("storage: build metadata: %w", err)
	}

	if d := s.writeThrottle.Consume(len(stored) + len(metaJSON)); d > 0 {
		coremetrics.ThrottleDelaySeconds.WithLabelValues("write").Observe(d.Seconds())
		time.Sleep(d)
	}

	if err := s.backend.WriteObject(ctx, key, stored); err != nil {
		s.cleanup(ctx, key, metaKey)
		return fmt.Errorf("storage: write payload: %w", err)
	}
	if err := s.backend.WriteObject(ctx, metaKey, metaJSON); err != nil {
		s.cleanup(ctx, key, metaKey)
		return fmt.Errorf("storage: write metadata: %w", err)
	}

	if s.consistencyCheckWrites {
		if err := s.verifyWrite(ctx, key, metaKey, stored, metaJSON); err != nil {
			s.cleanup(ctx, key, metaKey)
			return err
		}
	}

	if s.cache.Enabled() {
		if err := s.cache.Put(key, meta, stored); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to populate read cache after write")
		}
	}
	return nil
}

// readPayload satisfies a read from the cache when possible, else fetches
// from the backend and decapsulates, always repopulating the cache
// (metadata unconditionally, payload when fetched) regardless of whether
// the cache was itself consulted for this read. requireChecksum enforces
// that block metadata (but not version metadata) must carry a checksum.
func (s *Storage) readPayload(ctx context.Context, key string, metadataOnly, requireChecksum bool) (ReadResult, error) {
	if s.cache.Enabled() && s.useReadCache.Load() {
		meta, payload, metaHit, dataHit := s.cache.Get(key)
		if metaHit {
			if metadataOnly {
				return ReadResult{Metadata: meta}, nil
			}
			if dataHit {
				data, err := s.chain.Decapsulate(payload, meta.Transforms)
				if err != nil {
					return ReadResult{}, err
				}
				return ReadResult{Data: data, Metadata: meta}, nil
			}
		}
	}

	metaKey := storekey.MetaKey(key)
	metaJSON, err := s.backend.ReadObject(ctx, metaKey)
	if err != nil {
		return ReadResult{}, fmt.Errorf("storage: read metadata: %w", err)
	}
	meta, err := s.codec.Decode(metaJSON)
	if err != nil {
		return ReadResult{}, err
	}
	if requireChecksum && meta.Checksum == "" {
		return ReadResult{}, fmt.Errorf("storage: %w: block metadata missing checksum", corestore.ErrValueMismatch)
	}

	transferred := len(metaJSON)

	if metadataOnly {
		length, err := s.backend.ReadObjectLength(ctx, key)
		if err != nil {
			return ReadResult{}, fmt.Errorf("storage: read payload length: %w", err)
		}
		if length != meta.ObjectSize {
			return ReadResult{}, fmt.Errorf("storage: %w: object_size (observed %d != metadata %d)", corestore.ErrValueMismatch, length, meta.ObjectSize)
		}
		if d := s.readThrottle.Consume(transferred); d > 0 {
			coremetrics.ThrottleDelaySeconds.WithLabelValues("read").Observe(d.Seconds())
			time.Sleep(d)
		}
		if s.cache.Enabled() {
			if err := s.cache.Put(key, meta, nil); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("failed to populate read cache metadata")
			}
		}
		return ReadResult{Metadata: meta}, nil
	}

	stored, err := s.backend.ReadObject(ctx, key)
	if err != nil {
		return ReadResult{}, fmt.Errorf("storage: read payload: %w", err)
	}
	if len(stored) != meta.ObjectSize {
		return ReadResult{}, fmt.Errorf("storage: %w: object_size (observed %d != metadata %d)", corestore.ErrValueMismatch, len(stored), meta.ObjectSize)
	}
	transferred += len(stored)

	data, err := s.chain.Decapsulate(stored, meta.Transforms)
	if err != nil {
		return ReadResult{}, err
	}

	if d := s.readThrottle.Consume(transferred); d > 0 {
		coremetrics.ThrottleDelaySeconds.WithLabelValues("read").Observe(d.Seconds())
		time.Sleep(d)
	}

	if s.cache.Enabled() {
		if err := s.cache.Put(key, meta, stored); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to populate read cache")
		}
	}

	return ReadResult{Data: data, Metadata: meta}, nil
}

// verifyWrite re-reads the just-written payload and metadata objects and
// byte-compares them against what was sent, catching write/read drift a
// backend's own write acknowledgment might miss.
func (s *Storage) verifyWrite(ctx context.Context, key, metaKey string, stored, metaJSON []byte) error {
	gotData, err := s.backend.ReadObject(ctx, key)
	if err != nil {
		return fmt.Errorf("storage: consistency check read payload: %w", err)
	}
	gotMeta, err := s.backend.ReadObject(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("storage: consistency check read metadata: %w", err)
	}
	if !bytes.Equal(gotData, stored) || !bytes.Equal(gotMeta, metaJSON) {
		coremetrics.ConsistencyCheckFailuresTotal.Inc()
		return fmt.Errorf("storage: %w: post-write consistency check failed for %s", corestore.ErrInternal, key)
	}
	return nil
}

// cleanup best-effort removes a partially written object pair, ignoring
// ErrNotFound — used on every failed save after the payload write has been
// attempted: a failed payload write, a failed metadata write, or a failed
// post-write consistency check.
func (s *Storage) cleanup(ctx context.Context, key, metaKey string) {
	if err := s.backend.RmObject(ctx, key); err != nil && !errors.Is(err, corestore.ErrNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to clean up payload after partial write")
	}
	if err := s.backend.RmObject(ctx, metaKey); err != nil && !errors.Is(err, corestore.ErrNotFound) {
		s.log.Warn().Err(err).Str("key", metaKey).Msg("failed to clean up metadata after partial write")
	}
}

func (s *Storage) recordOutcome(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	coremetrics.OperationsTotal.WithLabelValues(op, outcome).Inc()
}
