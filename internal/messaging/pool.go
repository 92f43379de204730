package messaging

import (
	"context"
	"log/slog"
	"sync"
)

// DeliveryRecorder observes delivery outcomes per channel.
type DeliveryRecorder interface {
	ObserveDelivery(channel, outcome string)
}

type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, process func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker delivering message", "worker_id", w.ID, "channel", msg.Channel, "request_id", msg.RequestID)
				process(msg)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	Workers   int
	QueueSize int
}

// Pool fans messages out to channel senders on a bounded set of workers.
// Delivery is best effort: failures are logged and never reach the caller.
type Pool struct {
	senders  map[Channel]Sender
	recorder DeliveryRecorder
	logger   *slog.Logger

	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	dispatchWG sync.WaitGroup
	once       sync.Once
	stopOnce   sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPool(cfg PoolConfig, logger *slog.Logger, senders ...Sender) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	p := &Pool{
		senders:    make(map[Channel]Sender, len(senders)),
		logger:     logger,
		jobQueue:   make(chan Message, queueSize),
		workerPool: make(chan chan Message, maxWorkers),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, s := range senders {
		p.senders[s.Channel()] = s
	}

	p.start()
	return p
}

func (p *Pool) SetRecorder(r DeliveryRecorder) {
	p.recorder = r
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.deliver)
		}

		p.dispatchWG.Add(1)
		go p.dispatch()

		p.logger.Info("messaging worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.dispatchWG.Done()

	for msg := range p.jobQueue {
		select {
		case jobChannel := <-p.workerPool:
			select {
			case jobChannel <- msg:
			case <-p.ctx.Done():
				p.logger.Info("dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("dispatcher shutting down")
			return
		}
	}
}

// Enqueue never blocks. A full queue or a stopped pool drops the message.
func (p *Pool) Enqueue(msg Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("messaging pool stopped, dropping message", "channel", msg.Channel, "request_id", msg.RequestID)
		p.record(msg.Channel, "dropped")
		return false
	}

	select {
	case p.jobQueue <- msg:
		return true
	default:
		p.logger.Warn("messaging queue full, dropping message",
			"channel", msg.Channel,
			"request_id", msg.RequestID,
			"queue_capacity", cap(p.jobQueue))
		p.record(msg.Channel, "dropped")
		return false
	}
}

func (p *Pool) deliver(msg Message) {
	sender, ok := p.senders[msg.Channel]
	if !ok {
		p.logger.Debug("no sender configured, delivery skipped", "channel", msg.Channel)
		p.record(msg.Channel, "skipped")
		return
	}

	// in-flight deliveries finish on their own timeout even while the pool drains
	if err := sender.Send(context.Background(), msg); err != nil {
		p.logger.Warn("delivery skipped",
			"channel", msg.Channel,
			"request_id", msg.RequestID,
			"error", err)
		p.record(msg.Channel, "failed")
		return
	}
	p.record(msg.Channel, "sent")
}

func (p *Pool) record(ch Channel, outcome string) {
	if p.recorder != nil {
		p.recorder.ObserveDelivery(string(ch), outcome)
	}
}

// Shutdown stops intake, drains queued messages and waits for the workers.
// When ctx expires first the remaining queue is abandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down messaging pool")
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobQueue)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.dispatchWG.Wait()
		p.cancel()
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("messaging pool shutdown complete")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("messaging pool shutdown timed out", "pending", len(p.jobQueue))
		return ctx.Err()
	}
}
