package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/libs/service"
)

// DefaultQueueSize is the number of committed batches the Service buffers
// before Publish blocks.
const DefaultQueueSize = 64

// ErrStopped is returned by Publish once the Service has stopped.
var ErrStopped = errors.New("indexer service stopped")

// Service forwards committed batches to the event sinks off the consensus
// path. Batches reach every sink in the order they were published.
type Service struct {
	service.BaseService

	eventSinks []EventSink
	metrics    *Metrics
	queue      chan Batch

	// closed is set by run once it stops reading the queue; stopping is
	// closed just before, to release publishers blocked on a full queue.
	mtx      sync.RWMutex
	closed   bool
	stopping chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// ServiceArgs are arguments for constructing a new indexer service.
type ServiceArgs struct {
	Sinks     []EventSink
	Metrics   *Metrics
	Logger    log.Logger
	QueueSize int
}

// NewService constructs a new indexer service from the given arguments.
func NewService(args ServiceArgs) *Service {
	if args.Metrics == nil {
		args.Metrics = NopMetrics()
	}
	if args.QueueSize <= 0 {
		args.QueueSize = DefaultQueueSize
	}
	is := &Service{
		eventSinks: args.Sinks,
		metrics:    args.Metrics,
		queue:      make(chan Batch, args.QueueSize),
		stopping:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	is.BaseService = *service.NewBaseService(args.Logger, "IndexerService", is)
	return is
}

// OnStart implements service.Service by starting the indexing loop.
func (is *Service) OnStart(ctx context.Context) error {
	ctx, is.cancel = context.WithCancel(ctx)
	go is.run(ctx)
	return nil
}

// OnStop implements service.Service by draining the queue and closing the
// event sinks.
func (is *Service) OnStop() {
	is.cancel()
	<-is.done

	for _, sink := range is.eventSinks {
		if err := sink.Stop(); err != nil {
			is.Logger.Error("failed to close eventsink", "eventsink", sink.Type(), "err", err)
		}
	}
}

// Publish queues b for indexing. It blocks while the queue is full. It fails
// with ErrStopped once the indexing loop has begun to shut down, including
// when the context the Service was started with is canceled.
func (is *Service) Publish(ctx context.Context, b Batch) error {
	is.mtx.RLock()
	defer is.mtx.RUnlock()

	if is.closed || !is.IsRunning() {
		return ErrStopped
	}
	select {
	case is.queue <- b:
		return nil
	case <-is.stopping:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (is *Service) run(ctx context.Context) {
	defer close(is.done)
	for {
		select {
		case b := <-is.queue:
			is.index(ctx, b)
		case <-ctx.Done():
			close(is.stopping)
			is.mtx.Lock()
			is.closed = true
			is.mtx.Unlock()

			// flush what was committed before the stop
			for {
				select {
				case b := <-is.queue:
					is.index(context.Background(), b)
				default:
					return
				}
			}
		}
	}
}

func (is *Service) index(ctx context.Context, b Batch) {
	if len(b.Records) == 0 || !IndexingEnabled(is.eventSinks) {
		return
	}
	for _, sink := range is.eventSinks {
		label := string(sink.Type())
		start := time.Now()
		if err := sink.IndexEvents(ctx, b); err != nil {
			is.metrics.IndexErrors.With("sink", label).Add(1)
			is.Logger.Error("failed to index events", "height", b.Height, "sink", label, "err", err)
			continue
		}
		is.metrics.IndexSeconds.With("sink", label).Observe(time.Since(start).Seconds())
		is.metrics.BatchesIndexed.With("sink", label).Add(1)
		is.metrics.EventsIndexed.With("sink", label).Add(float64(len(b.Records)))
		is.Logger.Debug("indexed events", "height", b.Height, "sink", label, "count", len(b.Records))
	}
}
