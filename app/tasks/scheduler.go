package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"newslens/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Options carries the explicitly constructed configuration the scheduler
// and its stage tasks need. Built once at startup; components never reach
// for ambient state.
type Options struct {
	HTTPClient   *http.Client
	Sources      []sources.Source
	RawDir       string
	InterimDir   string
	ProcessedDir string
	UserAgent    string
	FetchDelay   time.Duration
	IgnoreRobots bool
	WithHTML     bool
	Interval     time.Duration // 0 disables periodic runs
	WorkerCount  int
}

// Scheduler runs pipeline stage tasks on a worker pool. Stages of one
// publish run are enqueued in order and the queue is FIFO, so with the
// default single worker each stage runs to completion before the next
// begins.
type Scheduler struct {
	opts      Options
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}

	return &Scheduler{
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 64),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.opts.Interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.EnqueuePublishRun()
			}
		}
	}()
}

// Stop cancels the scheduler context and waits for workers to drain.
// The queue channel is left open: handlers may still hold a reference,
// and their enqueues fail through the context instead.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueuePublishRun queues one complete pipeline run: RSS ingest, then the
// HTML stages when enabled, then the merge.
func (s *Scheduler) EnqueuePublishRun() {
	run := []TaskInterface{
		NewIngestFeedsTask(s.opts.HTTPClient, s.opts.UserAgent, s.opts.Sources, s.opts.ProcessedDir),
	}

	if s.opts.WithHTML {
		run = append(run,
			NewIngestPagesTask(s.opts.HTTPClient, s.opts.RawDir, s.opts.UserAgent, s.opts.FetchDelay, s.opts.IgnoreRobots, s.opts.Sources),
			NewExtractArticlesTask(s.opts.RawDir, s.opts.InterimDir, s.opts.ProcessedDir),
		)
	}

	run = append(run, NewMergeTask(s.opts.ProcessedDir))

	for _, task := range run {
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue pipeline task", "type", task.GetType(), "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
