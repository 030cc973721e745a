package coursejob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/coursecast/idgen"
)

// Coordinator owns the job registry and schedules pipeline execution.
// Jobs live in memory for their lifetime; completed courses are also
// persisted so they survive a restart.
type Coordinator struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	builder *Builder
	store   *Store
	logger  *slog.Logger
	newID   idgen.Generator
	now     func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// WithStore persists completed courses for retrieval after restart.
func WithStore(store *Store) CoordinatorOption {
	return func(c *Coordinator) { c.store = store }
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(gen idgen.Generator) CoordinatorOption {
	return func(c *Coordinator) { c.newID = gen }
}

// NewCoordinator creates a Coordinator running pipelines through builder.
func NewCoordinator(builder *Builder, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		jobs:    make(map[string]*Job),
		builder: builder,
		logger:  slog.Default(),
		newID:   idgen.Default,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates the playlist URL, registers a queued job, and starts
// the pipeline in the background. It returns the job id immediately.
func (c *Coordinator) Submit(ctx context.Context, playlistURL string) (string, error) {
	playlistURL = strings.TrimSpace(playlistURL)
	if playlistURL == "" {
		return "", fmt.Errorf("%w: playlist_url is required", ErrInvalidInput)
	}

	now := c.now().UnixMilli()
	job := &Job{
		JobID:     c.newID(),
		Status:    StatusQueued,
		Progress:  0,
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
		Logs:      []string{},
	}

	c.mu.Lock()
	c.jobs[job.JobID] = job
	c.mu.Unlock()

	// Fire and forget: the job outlives the submitting request, so the
	// pipeline runs on a context detached from it.
	go c.run(context.WithoutCancel(ctx), job.JobID, playlistURL)

	c.logger.Info("job submitted", "job_id", job.JobID, "playlist_url", playlistURL)
	return job.JobID, nil
}

// Get returns an immutable snapshot of a job, falling back to the
// persistent store for completed jobs evicted by a restart.
func (c *Coordinator) Get(ctx context.Context, jobID string) (*Job, error) {
	c.mu.RLock()
	job, ok := c.jobs[jobID]
	c.mu.RUnlock()
	if ok {
		return job, nil
	}
	if c.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return c.store.LoadJob(ctx, jobID)
}

// Result returns the completed course for a job, ErrNotReady while the job
// is still queued or processing, and the failure message once failed.
func (c *Coordinator) Result(ctx context.Context, jobID string) (*Course, error) {
	job, err := c.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case StatusCompleted:
		return job.Result, nil
	case StatusFailed:
		return nil, fmt.Errorf("%w: job failed: %s", ErrNotReady, job.Message)
	default:
		return nil, fmt.Errorf("%w: status %s, progress %d", ErrNotReady, job.Status, job.Progress)
	}
}

// update publishes a new snapshot of the job produced by applying fn to a
// private copy. Progress never decreases and terminal jobs never change.
func (c *Coordinator) update(jobID string, fn func(*Job)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.jobs[jobID]
	if !ok || cur.Terminal() {
		return
	}
	next := cur.clone()
	fn(next)
	next.Progress = min(max(next.Progress, cur.Progress), 100)
	next.UpdatedAt = c.now().UnixMilli()
	c.jobs[jobID] = next
}

func (c *Coordinator) run(ctx context.Context, jobID, playlistURL string) {
	logger := c.logger.With("job_id", jobID)

	c.update(jobID, func(j *Job) {
		j.Status = StatusProcessing
		j.Message = "Starting pipeline"
		j.Logs = append(j.Logs, "pipeline started")
	})

	progress := func(pct int, message string) {
		c.update(jobID, func(j *Job) {
			j.Progress = pct
			j.Message = message
		})
	}
	logf := func(format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		logger.Debug(line)
		c.update(jobID, func(j *Job) {
			j.Logs = append(j.Logs, line)
		})
	}

	course, err := c.builder.Build(ctx, playlistURL, progress, logf)
	if err != nil {
		logger.Warn("pipeline failed", "error", err)
		c.update(jobID, func(j *Job) {
			j.Status = StatusFailed
			j.Message = err.Error()
			j.Logs = append(j.Logs, "pipeline failed: "+err.Error())
		})
		return
	}

	c.update(jobID, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.Message = "Done"
		j.Result = course
		j.Logs = append(j.Logs, "pipeline completed")
	})
	logger.Info("pipeline completed", "course_id", course.CourseID, "modules", len(course.Modules))

	if c.store != nil {
		c.mu.RLock()
		snapshot := c.jobs[jobID]
		c.mu.RUnlock()
		if err := c.store.SaveJob(ctx, snapshot); err != nil {
			logger.Warn("persist completed job", "error", err)
		}
	}
}
