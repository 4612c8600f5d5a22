package evaluate

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

// Pool runs evaluations on a bounded set of workers. The bound caps
// concurrent calls to the external evaluator and analysis services.
type Pool struct {
	evaluator *Evaluator
	workers   int
	tasks     chan Task
	wg        sync.WaitGroup
}

// PoolOption is a functional option for Pool
type PoolOption func(*Pool)

func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.tasks = make(chan Task, n)
		}
	}
}

// NewPool creates a worker pool around the evaluator
func NewPool(evaluator *Evaluator, opts ...PoolOption) *Pool {
	p := &Pool{
		evaluator: evaluator,
		workers:   4,
		tasks:     make(chan Task, 64),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start launches the workers. They exit when ctx is cancelled or the pool
// is stopped.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Dispatch enqueues a task without blocking the submitter. It fails when the
// queue is full. Must not be called after Stop.
func (p *Pool) Dispatch(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return goerr.New("evaluation queue is full")
	}
}

// Stop closes the queue and waits for in-flight evaluations to finish
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.process(ctx, task)
		}
	}
}

func (p *Pool) process(ctx context.Context, task Task) {
	logger := logging.From(ctx).With("transcript", string(task.TranscriptID))

	if err := p.evaluator.Evaluate(ctx, &task); err != nil {
		logger.Error("evaluation failed", "error", err)
		if markErr := p.evaluator.MarkFailed(ctx, task.TranscriptID); markErr != nil {
			logger.Error("failed to mark transcript as failed", "error", markErr)
		}
	}
}
