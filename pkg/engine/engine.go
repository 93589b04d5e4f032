// Package engine implements the bounded-concurrency scheduler the storage
// facade submits reads and writes to: one worker pool per direction, each
// backed by a counting semaphore sized workers+queueDepth so that
// submission blocks (providing backpressure) once the pool is saturated,
// plus a completion stream that yields finished jobs in completion order.
// Each admitted job runs on its own goroutine, so up to workers+queueDepth
// jobs of one direction execute at once; the worker count is not a
// separate limit on concurrent execution.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/benji-go/corestore/pkg/corelog"
	"github.com/benji-go/corestore/pkg/coremetrics"
)

// Direction distinguishes the read and write pools, which are sized and
// drained independently.
type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Result is one completed job's outcome, as yielded by NextRead/NextWrite.
type Result struct {
	Value any
	Err   error
}

// Config sizes the two worker pools. QueueDepth defaults to 1 when zero,
// matching the Python original's default admission slack of one job beyond
// the worker count.
type Config struct {
	ReadWorkers     int
	WriteWorkers    int
	ReadQueueDepth  int
	WriteQueueDepth int
}

func (c Config) readCapacity() int64 {
	depth := c.ReadQueueDepth
	if depth == 0 {
		depth = 1
	}
	return int64(c.ReadWorkers + depth)
}

func (c Config) writeCapacity() int64 {
	depth := c.WriteQueueDepth
	if depth == 0 {
		depth = 1
	}
	return int64(c.WriteWorkers + depth)
}

// Engine runs submitted jobs on two bounded pools and reports their
// outcomes through per-direction completion streams.
type Engine struct {
	readSem  *semaphore.Weighted
	writeSem *semaphore.Weighted

	readCh  chan Result
	writeCh chan Result

	readWG  sync.WaitGroup // outstanding (submitted, not yet computed) reads
	writeWG sync.WaitGroup // outstanding (submitted, not yet computed) writes
	liveWG  sync.WaitGroup // every spawned goroutine, for Close to drain

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// New builds an Engine with the given pool sizes.
func New(cfg Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		readSem:  semaphore.NewWeighted(cfg.readCapacity()),
		writeSem: semaphore.NewWeighted(cfg.writeCapacity()),
		readCh:   make(chan Result, cfg.readCapacity()),
		writeCh:  make(chan Result, cfg.writeCapacity()),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SubmitRead acquires a read slot (blocking the caller under backpressure)
// and runs fn on a worker goroutine. The result is available from NextRead
// once fn completes; the semaphore slot is held until that result is
// consumed, so a slow consumer throttles new read admission.
func (e *Engine) SubmitRead(ctx context.Context, fn func() (any, error)) error {
	return e.submit(ctx, Read, fn)
}

// SubmitWrite acquires a write slot and runs fn on a worker goroutine. The
// slot is released as soon as fn completes, independent of whether the
// result has been consumed from NextWrite yet.
func (e *Engine) SubmitWrite(ctx context.Context, fn func() (any, error)) error {
	return e.submit(ctx, Write, fn)
}

func (e *Engine) submit(ctx context.Context, dir Direction, fn func() (any, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("engine: closed")
	}
	e.mu.Unlock()

	sem := e.semFor(dir)
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("engine: acquire %s slot: %w", dir, err)
	}
	depth := coremetrics.WorkerQueueDepth.WithLabelValues(dir.String())
	depth.Inc()

	e.wgFor(dir).Add(1)
	e.liveWG.Add(1)
	go func() {
		defer e.liveWG.Done()

		value, err := fn()
		e.wgFor(dir).Done()

		if dir == Write {
			sem.Release(1)
			depth.Dec()
		}

		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		coremetrics.WorkerJobsTotal.WithLabelValues(dir.String(), outcome).Inc()

		e.chanFor(dir) <- Result{Value: value, Err: err}
	}()
	return nil
}

func (e *Engine) semFor(dir Direction) *semaphore.Weighted {
	if dir == Read {
		return e.readSem
	}
	return e.writeSem
}

func (e *Engine) wgFor(dir Direction) *sync.WaitGroup {
	if dir == Read {
		return &e.readWG
	}
	return &e.writeWG
}

func (e *Engine) chanFor(dir Direction) chan Result {
	if dir == Read {
		return e.readCh
	}
	return e.writeCh
}

// Read executes fn inline, bypassing the pool entirely — the synchronous
// mode a caller opts into per-call rather than per-engine.
func (e *Engine) Read(fn func() (any, error)) (any, error) { return fn() }

// Write executes fn inline, bypassing the pool entirely.
func (e *Engine) Write(fn func() (any, error)) (any, error) { return fn() }

// NextRead blocks up to timeout for the next completed read, releasing
// that job's semaphore slot once it is handed to the caller.
func (e *Engine) NextRead(timeout time.Duration) (Result, bool) {
	select {
	case r, ok := <-e.readCh:
		if !ok {
			return Result{}, false
		}
		e.readSem.Release(1)
		coremetrics.WorkerQueueDepth.WithLabelValues(Read.String()).Dec()
		return r, true
	case <-time.After(timeout):
		return Result{}, false
	}
}

// NextWrite blocks up to timeout for the next completed write.
func (e *Engine) NextWrite(timeout time.Duration) (Result, bool) {
	select {
	case r, ok := <-e.writeCh:
		if !ok {
			return Result{}, false
		}
		return r, true
	case <-time.After(timeout):
		return Result{}, false
	}
}

// WaitReads blocks until every submitted read has finished executing
// (not necessarily been consumed from NextRead).
func (e *Engine) WaitReads() { e.readWG.Wait() }

// WaitWrites blocks until every submitted write has finished executing.
func (e *Engine) WaitWrites() { e.writeWG.Wait() }

// Close cancels the engine's internal context (a best-effort signal to
// jobs that check it), drains the read completion stream to release its
// semaphore slots, discards any unconsumed write completions (writers
// already released their own slots), and waits for in-flight goroutines to
// finish. Anything still outstanding at close time is logged as a
// warning.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()

	var readDrained, writeDrained int
	var g errgroup.Group
	g.Go(func() error {
		for range e.readCh {
			e.readSem.Release(1)
			coremetrics.WorkerQueueDepth.WithLabelValues(Read.String()).Dec()
			readDrained++
		}
		return nil
	})
	g.Go(func() error {
		for range e.writeCh {
			writeDrained++
		}
		return nil
	})

	// Drain while waiting: a write goroutine may be blocked sending its
	// result into a full channel, and only the drain above unblocks it.
	e.liveWG.Wait()
	close(e.readCh)
	close(e.writeCh)

	_ = g.Wait() // both goroutines are infallible; only range-until-closed

	if drained := readDrained + writeDrained; drained > 0 {
		corelog.Logger.Warn().Int("outstanding", drained).Msg("engine closed with unconsumed completions")
	}
}
