package jobs

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/cache"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/metrics"
)

var (
	ErrDuplicateJob = errors.New("job already queued or running")
	ErrQueueFull    = errors.New("job queue is full")
	ErrQueueClosed  = errors.New("job queue is closed")
)

const lockPrefix = "jobs:lock:"

// JobRunner executes one job to a terminal state.
type JobRunner interface {
	Run(ctx context.Context, def Definition) Outcome
}

type QueueOptions struct {
	Workers int
	Size    int
	// Tracker, when set, records queued jobs and jobs dropped on shutdown.
	Tracker *Tracker
}

// Queue is an in-process priority queue drained by a fixed worker pool.
type Queue struct {
	runner  JobRunner
	locks   cache.Store
	logger  *zap.Logger
	tracker *Tracker

	workers int
	size    int

	mu     sync.Mutex
	items  jobHeap
	seq    uint64
	closed bool
	wake   chan struct{}
	wg     sync.WaitGroup

	// OnDone, when set, observes every terminal outcome.
	OnDone func(def Definition, out Outcome)
}

func NewQueue(runner JobRunner, locks cache.Store, opts QueueOptions, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = cache.NewMemoryStore()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Queue{
		runner:  runner,
		locks:   locks,
		logger:  logger,
		tracker: opts.Tracker,
		workers: opts.Workers,
		size:    opts.Size,
		wake:    make(chan struct{}, 1),
	}
}

// Dispatch enqueues def. A job whose unique key is held by another queued or
// running job is rejected with ErrDuplicateJob.
func (q *Queue) Dispatch(ctx context.Context, def Definition) (Definition, error) {
	if err := q.acquire(ctx, def); err != nil {
		return def, err
	}

	q.mu.Lock()
	switch {
	case q.closed:
		q.mu.Unlock()
		q.release(ctx, def)
		return def, ErrQueueClosed
	case q.size > 0 && q.items.Len() >= q.size:
		q.mu.Unlock()
		q.release(ctx, def)
		return def, ErrQueueFull
	}
	q.seq++
	q.tracker.Set(def, StateQueued, 0, nil)
	heap.Push(&q.items, &queued{def: def, seq: q.seq})
	depth := q.items.Len()
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	q.logger.Info("job queued",
		zap.String("job", def.Name),
		zap.String("job_id", def.ID),
		zap.Int("priority", def.Priority),
		zap.String("unique_key", def.UniqueKey),
	)
	q.signal()
	return def, nil
}

// RunNow executes def on the calling goroutine, bypassing the queue but
// holding the same uniqueness lock a dispatched job would.
func (q *Queue) RunNow(ctx context.Context, def Definition) (Outcome, error) {
	if err := q.acquire(ctx, def); err != nil {
		return Outcome{JobID: def.ID}, err
	}
	defer q.release(ctx, def)
	return q.runner.Run(ctx, def), nil
}

// Start launches the workers. They stop when ctx is canceled; jobs still
// waiting in the queue are dropped and their locks released.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	go func() {
		<-ctx.Done()
		q.drain()
	}()
}

// Wait blocks until every worker has returned.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *Queue) work(ctx context.Context, worker int) {
	defer q.wg.Done()
	for {
		def, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}
		if ctx.Err() != nil {
			q.tracker.Set(def, StateCanceled, 0, ctx.Err())
			q.release(ctx, def)
			return
		}

		q.logger.Debug("job picked up", zap.Int("worker", worker), zap.String("job_id", def.ID))
		out := q.runner.Run(ctx, def)
		q.release(ctx, def)
		if q.OnDone != nil {
			q.OnDone(def, out)
		}
	}
}

func (q *Queue) next() (Definition, bool) {
	q.mu.Lock()
	if q.items.Len() == 0 {
		q.mu.Unlock()
		return Definition{}, false
	}
	item := heap.Pop(&q.items).(*queued)
	depth := q.items.Len()
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	if depth > 0 {
		q.signal()
	}
	return item.def, true
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) drain() {
	q.mu.Lock()
	q.closed = true
	pending := make([]Definition, 0, q.items.Len())
	for q.items.Len() > 0 {
		pending = append(pending, heap.Pop(&q.items).(*queued).def)
	}
	q.mu.Unlock()

	metrics.QueueDepth.Set(0)
	for _, def := range pending {
		q.logger.Warn("job dropped on shutdown", zap.String("job", def.Name), zap.String("job_id", def.ID))
		q.tracker.Set(def, StateCanceled, 0, ErrQueueClosed)
		q.release(context.Background(), def)
	}
}

func (q *Queue) acquire(ctx context.Context, def Definition) error {
	if def.UniqueKey == "" {
		return nil
	}
	key := lockPrefix + def.UniqueKey
	ok, err := q.locks.SetNX(ctx, key, []byte(def.ID), def.lockTTL())
	if err != nil {
		return fmt.Errorf("acquire job lock %s: %w", def.UniqueKey, err)
	}
	if !ok {
		holder, _, _ := q.locks.Get(ctx, key)
		return fmt.Errorf("%w: %s held by %s", ErrDuplicateJob, def.UniqueKey, string(holder))
	}
	return nil
}

// release frees the job's unique key if this job still holds it.
func (q *Queue) release(ctx context.Context, def Definition) {
	if def.UniqueKey == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	key := lockPrefix + def.UniqueKey
	holder, found, err := q.locks.Get(ctx, key)
	if err != nil {
		q.logger.Warn("read job lock", zap.String("key", def.UniqueKey), zap.Error(err))
		return
	}
	if !found || string(holder) != def.ID {
		return
	}
	if err := q.locks.Delete(ctx, key); err != nil {
		q.logger.Warn("release job lock", zap.String("key", def.UniqueKey), zap.Error(err))
	}
}

type queued struct {
	def Definition
	seq uint64
}

// jobHeap orders by priority, highest first, then by arrival.
type jobHeap []*queued

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].def.Priority != h[j].def.Priority {
		return h[i].def.Priority > h[j].def.Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*queued)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
