package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work identified by the record it belongs to.
type Task struct {
	ID        string
	Kind      string
	RecordID  string
	Attempt   int
	Submitted time.Time
}

// Worker executes a task. A non-nil error triggers a delayed retry.
type Worker func(context.Context, Task) error

// Options tune the dispatcher pool.
type Options struct {
	Workers    int
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher runs tasks on a fixed pool of goroutines with bounded retries.
type Dispatcher struct {
	name   string
	worker Worker
	opts   Options

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewDispatcher builds a dispatcher for the given worker function.
func NewDispatcher(name string, worker Worker, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 8
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		name:   name,
		worker: worker,
		opts:   opts,
		tasks:  make(chan Task, opts.Buffer),
	}
}

// Start spins up the worker pool. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.running = true
	d.opts.Logger.Sugar().Infow("dispatcher started", "name", d.name, "workers", d.opts.Workers)
}

// Stop cancels in-flight tasks and waits for workers and pending retry
// timers to exit. The dispatcher does not accept tasks afterwards.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.running = false
	d.mu.Unlock()
	d.wg.Wait()
	d.opts.Logger.Sugar().Infow("dispatcher stopped", "name", d.name)
}

// Submit queues a task for execution.
func (d *Dispatcher) Submit(task Task) error {
	d.mu.Lock()
	ctx := d.ctx
	running := d.running
	d.mu.Unlock()

	// The buffered send below could win a race against a cancelled
	// context, so a stopped dispatcher must be rejected up front.
	if !running || ctx.Err() != nil {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	if task.Submitted.IsZero() {
		task.Submitted = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher %s stopped: %w", d.name, ctx.Err())
	case d.tasks <- task:
		return nil
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case task := <-d.tasks:
			if err := d.worker(d.ctx, task); err != nil {
				d.retry(task, err)
			}
		}
	}
}

func (d *Dispatcher) retry(task Task, cause error) {
	task.Attempt++
	log := d.opts.Logger.Sugar()
	if task.Attempt > d.opts.MaxRetries {
		log.Errorw("task abandoned after retries", "name", d.name, "task_id", task.ID, "kind", task.Kind, "error", cause)
		return
	}
	log.Warnw("task failed, will retry", "name", d.name, "task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "error", cause)

	// The timer goroutine joins the WaitGroup so Stop cannot return with a
	// retry still pending.
	d.wg.Add(1)
	go func(t Task) {
		defer d.wg.Done()
		timer := time.NewTimer(d.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
		case <-timer.C:
			if err := d.Submit(t); err != nil {
				log.Errorw("requeue failed", "name", d.name, "task_id", t.ID, "error", err)
			}
		}
	}(task)
}
