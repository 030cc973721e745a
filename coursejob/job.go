// Package coursejob coordinates asynchronous course-generation jobs: a
// submission creates a queued job and returns immediately, a background
// worker runs the pipeline stages, and polling clients read atomic job
// snapshots until the job reaches a terminal state.
package coursejob

import "slices"

// Status is the job lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is one course-generation request. Instances handed out by the
// coordinator are immutable snapshots; all mutation happens on private
// copies inside the coordinator.
type Job struct {
	JobID     string   `json:"job_id"`
	Status    Status   `json:"status"`
	Progress  int      `json:"progress"`
	Message   string   `json:"message"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
	Logs      []string `json:"logs"`
	Result    *Course  `json:"result"`
}

// Terminal reports whether the job can no longer change.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// clone returns a copy safe to mutate without affecting published
// snapshots. The Result pointer is shared: a Course is set once at
// completion and never mutated afterward.
func (j *Job) clone() *Job {
	next := *j
	next.Logs = slices.Clone(j.Logs)
	return &next
}
