package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agenteagro/agenteagro/internal/whatsapp"
)

// Pool runs Processors over a bounded queue. The webhook handler enqueues and
// returns; processing happens on the pool's workers.
type Pool struct {
	processor *Processor
	jobs      chan whatsapp.InboundMessage
	workers   int
	wg        sync.WaitGroup
	logger    *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewPool(log *slog.Logger, processor *Processor, workers, queueSize int) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		processor: processor,
		jobs:      make(chan whatsapp.InboundMessage, queueSize),
		workers:   workers,
		logger:    log.With(slog.String("service", "pipeline_pool")),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for msg := range p.jobs {
				p.run(msg)
			}
		}()
	}
	p.logger.Info("pipeline workers started", slog.Int("workers", p.workers), slog.Int("queue", cap(p.jobs)))
}

// Enqueue hands a message to the pool. When the queue is full the message is
// dropped with a warning; the webhook ack must never block on processing.
func (p *Pool) Enqueue(msg whatsapp.InboundMessage) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	select {
	case p.jobs <- msg:
		return true
	default:
		p.logger.Warn("pipeline queue full, dropping message",
			slog.String("from", msg.From), slog.String("type", msg.Type))
		return false
	}
}

// Stop closes the queue and waits for in-flight work to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("pipeline workers stopped")
}

// run isolates one job so a panicking message cannot take a worker down.
func (p *Pool) run(msg whatsapp.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered", slog.Any("panic", r), slog.String("from", msg.From))
		}
	}()
	p.processor.Process(context.Background(), msg)
}
