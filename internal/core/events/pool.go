package events

import (
	"context"
	"log/slog"
	"sync"
)

// delivery carries one event to one handler.
type delivery struct {
	ctx     context.Context
	event   Event
	handler Handler
}

func runDelivery(job delivery, logger *slog.Logger) {
	if err := job.handler(job.ctx, job.event); err != nil {
		logger.Error("event handler failed",
			"event_type", job.event.EventType(),
			"event_id", job.event.EventID(),
			"error", err)
	}
}

type worker struct {
	id         int
	workerPool chan chan delivery
	jobChannel chan delivery
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan delivery, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan delivery),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("worker delivering event", "worker_id", w.id, "event_type", job.event.EventType())
				runDelivery(job, w.logger)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

type deliveryPool struct {
	logger *slog.Logger

	jobQueue   chan delivery
	workerPool chan chan delivery
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func newDeliveryPool(config PoolConfig, logger *slog.Logger) *deliveryPool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	pool := &deliveryPool{
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan delivery, jobQueueSize),
		workerPool: make(chan chan delivery, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	pool.startWorkers()

	return pool
}

func (p *deliveryPool) startWorkers() {
	p.once.Do(func() {

		for i := 0; i < p.maxWorkers; i++ {
			w := newWorker(i, p.workerPool, p.logger)
			w.start(p.ctx, &p.wg)
		}

		go p.dispatch()

		p.logger.Info("event delivery pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *deliveryPool) dispatch() {
	defer p.wg.Done()
	p.wg.Add(1)

	for {
		select {
		case job := <-p.jobQueue:

			select {
			case jobChannel := <-p.workerPool:

				select {
				case jobChannel <- job:

				case <-p.ctx.Done():
					p.logger.Info("event dispatcher shutting down")
					return
				}
			case <-p.ctx.Done():
				p.logger.Info("event dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("event dispatcher shutting down")
			return
		}
	}
}

// enqueue reports whether the job was accepted; false means the queue is
// full and the caller should deliver inline.
func (p *deliveryPool) enqueue(job delivery) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (p *deliveryPool) shutdown() {
	p.logger.Info("shutting down event delivery pool")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("event delivery pool shutdown complete")
}
