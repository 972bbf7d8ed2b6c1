package email

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eventbooking/internal/domain"
)

var (
	ErrQueueFull         = errors.New("email queue is full")
	ErrDispatcherStopped = errors.New("email dispatcher is not running")
)

const defaultSendTimeout = 30 * time.Second

type job struct {
	kind string
	to   string
	send func(ctx context.Context) error
}

// Dispatcher is an asynchronous domain.EmailService. It queues each message and returns
// immediately; a fixed pool of workers renders and sends through the wrapped service.
type Dispatcher struct {
	next        domain.EmailService
	logger      *slog.Logger
	workers     int
	sendTimeout time.Duration

	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

var _ domain.EmailService = (*Dispatcher)(nil)

// NewDispatcher wraps next with a queue of queueSize served by workers goroutines.
func NewDispatcher(next domain.EmailService, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &Dispatcher{
		next:        next,
		logger:      logger,
		workers:     workers,
		sendTimeout: defaultSendTimeout,
		queue:       make(chan job, queueSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("email dispatcher started", "workers", d.workers)
}

// Stop refuses new messages, drains the queue and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("email dispatcher stopped")
}

func (d *Dispatcher) SendActivation(_ context.Context, data *domain.ActivationEmailData) error {
	return d.enqueue(job{kind: "activation", to: data.Email, send: func(ctx context.Context) error {
		return d.next.SendActivation(ctx, data)
	}})
}

func (d *Dispatcher) SendPasswordReset(_ context.Context, data *domain.PasswordResetEmailData) error {
	return d.enqueue(job{kind: "password_reset", to: data.Email, send: func(ctx context.Context) error {
		return d.next.SendPasswordReset(ctx, data)
	}})
}

func (d *Dispatcher) enqueue(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := j.send(ctx); err != nil {
			d.logger.Error("email delivery failed", "worker_id", id, "kind", j.kind, "to", j.to, "err", err)
		} else {
			d.logger.Debug("email delivered", "worker_id", id, "kind", j.kind, "to", j.to)
		}
		cancel()
	}
}
