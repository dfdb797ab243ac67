// Package workerpool provides a bounded worker pool for work that must not
// block the request path, such as delivering exported documents.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("task queue is full")
	ErrStopped   = errors.New("pool is shutting down")
)

// Task is a unit of work carrying a typed payload
type Task[T any] struct {
	ID      string
	Payload T
	// Context overrides the pool context when set
	Context context.Context
}

// HandlerFunc processes one task; a non-nil error is retried
type HandlerFunc[T any] func(ctx context.Context, task Task[T]) error

// Config holds worker pool configuration
type Config struct {
	// Workers is the number of concurrent workers
	Workers int
	// QueueSize is the size of the task queue
	QueueSize int
	// MaxRetries is the maximum number of retries for failed tasks
	MaxRetries int
	// RetryDelay grows linearly with each attempt
	RetryDelay time.Duration
	// ShutdownTimeout bounds how long Stop waits for queued tasks
	ShutdownTimeout time.Duration
}

// DefaultConfig returns defaults sized for a single soap-api instance
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		QueueSize:       256,
		MaxRetries:      3,
		RetryDelay:      200 * time.Millisecond,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Pool runs tasks on a fixed number of workers
type Pool[T any] struct {
	config  Config
	handler HandlerFunc[T]
	logger  *zap.Logger
	onDone  func(Task[T], error)

	mu      sync.RWMutex
	stopped bool
	tasks   chan Task[T]
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	active    atomic.Int64
}

// New creates a pool; call Start before submitting
func New[T any](cfg Config, fn HandlerFunc[T], logger *zap.Logger) (*Pool[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("handler function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool[T]{
		config:  cfg,
		handler: fn,
		logger:  logger,
		tasks:   make(chan Task[T], cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// OnDone registers a callback invoked after each task's final attempt.
// It must be set before Start.
func (p *Pool[T]) OnDone(fn func(Task[T], error)) {
	p.onDone = fn
}

// Start launches all workers
func (p *Pool[T]) Start() {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit enqueues a task without blocking
func (p *Pool[T]) Submit(task Task[T]) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued tasks and waits for the workers. In-flight retries are
// cancelled once ShutdownTimeout elapses.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.logger.Info("stopping worker pool", zap.Int("queued", len(p.tasks)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out, cancelling in-flight tasks")
		p.cancel()
		<-done
	}
	p.cancel()
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()
	p.active.Add(1)
	defer p.active.Add(-1)

	for task := range p.tasks {
		err := p.process(task)
		if err != nil {
			p.failed.Add(1)
			p.logger.Error("task failed",
				zap.String("task_id", task.ID),
				zap.Int("worker_id", id),
				zap.Error(err))
		} else {
			p.completed.Add(1)
		}
		if p.onDone != nil {
			p.onDone(task, err)
		}
	}
}

func (p *Pool[T]) process(task Task[T]) error {
	ctx := task.Context
	if ctx == nil {
		ctx = p.ctx
	}

	var err error
	for attempt := 0; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = p.handler(ctx, task); err == nil {
			return nil
		}
		if attempt >= p.config.MaxRetries {
			break
		}

		p.retried.Add(1)
		p.logger.Debug("retrying task",
			zap.String("task_id", task.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.config.RetryDelay * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("task failed after %d retries: %w", p.config.MaxRetries, err)
}

// Stats is a snapshot of pool counters
type Stats struct {
	TasksSubmitted int64
	TasksCompleted int64
	TasksFailed    int64
	TasksRetried   int64
	ActiveWorkers  int64
	QueueDepth     int
	QueueCapacity  int
	Workers        int
}

func (p *Pool[T]) Stats() Stats {
	return Stats{
		TasksSubmitted: p.submitted.Load(),
		TasksCompleted: p.completed.Load(),
		TasksFailed:    p.failed.Load(),
		TasksRetried:   p.retried.Load(),
		ActiveWorkers:  p.active.Load(),
		QueueDepth:     len(p.tasks),
		QueueCapacity:  p.config.QueueSize,
		Workers:        p.config.Workers,
	}
}

// IsHealthy reports false once the queue is 90% full
func (p *Pool[T]) IsHealthy() bool {
	s := p.Stats()
	return float64(s.QueueDepth)/float64(s.QueueCapacity) < 0.9
}
