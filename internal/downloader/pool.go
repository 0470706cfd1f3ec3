package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"civsync/pkg/civitai"
	"civsync/pkg/imaging"
	"civsync/pkg/logger"
	"civsync/pkg/storage"
	"civsync/pkg/ui"
)

// Job is a single download/convert task for one image record
type Job struct {
	Record civitai.ImageRecord
}

// Result is the outcome of a job. Success carries the local path the
// converted file was written to; failure carries the reason. Results drive
// archiving and error reporting only and are never persisted.
type Result struct {
	Job       Job
	Success   bool
	Skipped   bool
	LocalPath string
	Filename  string
	Err       error
	Duration  time.Duration
	Size      int
}

// ImageFetcher downloads an asset's binary payload
type ImageFetcher interface {
	DownloadImage(url string) ([]byte, error)
}

// ImageStore persists converted images
type ImageStore interface {
	IsDownloaded(filename string) bool
	SaveImage(r io.Reader, filename string) (string, error)
}

// WorkerPool manages concurrent download/convert workers. Tasks are
// independent: one task's failure never cancels or blocks the others, and
// workers share no mutable state beyond the progress tracker.
type WorkerPool struct {
	numWorkers   int
	jobQueue     chan Job
	resultQueue  chan Result
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	client       ImageFetcher
	store        ImageStore
	jpegQuality  int
	skipExisting bool
	progress     *ui.ProgressTracker
	logger       logger.Logger
}

// NewWorkerPool creates a download pool with a fixed worker count
func NewWorkerPool(
	numWorkers int,
	client ImageFetcher,
	store ImageStore,
	jpegQuality int,
	progress *ui.ProgressTracker,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if jpegQuality <= 0 {
		jpegQuality = imaging.DefaultQuality
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		store:       store,
		jpegQuality: jpegQuality,
		progress:    progress,
		logger:      log,
	}
}

// SetSkipExisting makes the pool treat already-present files as successes
// without re-fetching them. Used by the one-shot download path.
func (wp *WorkerPool) SetSkipExisting(skip bool) {
	wp.skipExisting = skip
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight jobs, then closes the result
// channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("worker pool stopped")
}

// Submit adds a job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel download outcomes are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob downloads one image, converts it to JPEG and writes it under
// its deterministic filename
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	filename := storage.Filename(job.Record.Username, job.Record.ID)
	result := Result{Job: job, Filename: filename}

	if job.Record.URL == "" {
		result.Err = fmt.Errorf("record %d has no source URL", job.Record.ID)
		result.Duration = time.Since(start)
		wp.finish(&result)
		return result
	}

	if wp.skipExisting && wp.store.IsDownloaded(filename) {
		wp.logger.DebugWithFields("image already present, skipping", map[string]interface{}{
			"worker_id": workerID,
			"file":      filename,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		wp.finish(&result)
		return result
	}

	data, err := wp.client.DownloadImage(job.Record.URL)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		wp.finish(&result)
		return result
	}

	converted, err := imaging.ToJPEG(data, wp.jpegQuality)
	if err != nil {
		result.Err = fmt.Errorf("conversion failed: %w", err)
		result.Duration = time.Since(start)
		wp.finish(&result)
		return result
	}
	result.Size = len(converted)

	path, err := wp.store.SaveImage(bytes.NewReader(converted), filename)
	if err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.finish(&result)
		return result
	}

	result.Success = true
	result.LocalPath = path
	result.Duration = time.Since(start)
	wp.finish(&result)

	wp.logger.DebugWithFields("job completed", map[string]interface{}{
		"worker_id": workerID,
		"file":      filename,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

func (wp *WorkerPool) finish(result *Result) {
	if wp.progress == nil {
		return
	}
	if result.Success {
		wp.progress.MarkCompleted(result.Filename)
	} else {
		wp.progress.MarkFailed(result.Filename, result.Err)
	}
}

// QueueSize returns the current number of queued jobs
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
