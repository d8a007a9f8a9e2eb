package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/clausegest/internal/config"
)

const janitorInterval = 5 * time.Minute

var (
	// ErrStopped is returned by Submit once the orchestrator has been stopped.
	ErrStopped = errors.New("pipeline stopped")
	// ErrDocumentBusy is returned by Submit while another job for the same
	// document id is queued or running.
	ErrDocumentBusy = errors.New("document is already being processed")
)

// Orchestrator feeds uploaded documents to a fixed pool of workers.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	deps  Deps
	log   *slog.Logger
	cfg   config.Config

	mu       sync.Mutex
	stopped  bool
	inflight map[string]string // doc id -> job id
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, deps Deps, log *slog.Logger) *Orchestrator {
	if deps.Stats == nil {
		deps.Stats = NewStageStats(cfg.StatsAge)
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		deps:     deps,
		log:      log,
		cfg:      cfg,
		inflight: make(map[string]string),
	}
}

// Start launches the workers and the job janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	o.wg.Add(o.cfg.WorkerCount + 1)
	for i := range o.cfg.WorkerCount {
		go o.runWorker(ctx, i)
	}
	go o.runJanitor(ctx)

	o.log.Info("pipeline started", "workers", o.cfg.WorkerCount, "queue_size", o.cfg.MaxQueueSize)
}

func (o *Orchestrator) runWorker(ctx context.Context, n int) {
	defer o.wg.Done()
	w := NewWorker(o.deps, o.log.With("worker", n))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			o.process(ctx, w, job)
		}
	}
}

// process keeps a panicking document from taking its worker down.
func (o *Orchestrator) process(ctx context.Context, w *Worker, job *Job) {
	defer o.release(job)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("worker panic", "job_id", job.ID, "doc_id", job.DocID, "panic", r)
			job.AddError(fmt.Sprintf("panic: %v", r))
			job.SetStatus(StatusFailed, "panic")
		}
	}()
	w.Process(ctx, job)
}

func (o *Orchestrator) runJanitor(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.jobs.Cleanup()
		}
	}
}

// Stop cancels in-flight work and waits for every goroutine to exit.
// Jobs still queued are left in their pending state.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.log.Info("pipeline stopped")
}

// Submit registers job and queues it for processing. Only one job per
// document id may be queued or running, since jobs for the same document
// share its output paths. A full queue fails the job immediately rather
// than blocking the caller.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	if running, ok := o.inflight[job.DocID]; ok {
		return fmt.Errorf("%w: %s (job %s)", ErrDocumentBusy, job.DocID, running)
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.inflight[job.DocID] = job.ID
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) release(job *Job) {
	o.mu.Lock()
	if o.inflight[job.DocID] == job.ID {
		delete(o.inflight, job.DocID)
	}
	o.mu.Unlock()
}

// GetJob returns a tracked job, or nil once it has expired.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Deps returns the shared stores for direct use by API handlers.
func (o *Orchestrator) Deps() Deps {
	return o.deps
}

func (o *Orchestrator) Stats() *StageStats {
	return o.deps.Stats
}
