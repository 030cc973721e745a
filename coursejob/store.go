package coursejob

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	job_id     TEXT PRIMARY KEY,
	course     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store persists completed courses so job results survive a restart.
type Store struct {
	db *sql.DB
}

// NewStore prepares the courses table on an open database handle.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("coursejob: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveJob stores the result of a completed job. Non-completed jobs are
// silently ignored: only final courses are worth keeping.
func (s *Store) SaveJob(ctx context.Context, job *Job) error {
	if job == nil || job.Status != StatusCompleted || job.Result == nil {
		return nil
	}
	raw, err := json.Marshal(job.Result)
	if err != nil {
		return fmt.Errorf("coursejob: marshal course: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO courses (job_id, course, created_at) VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET course = excluded.course`,
		job.JobID, string(raw), job.CreatedAt)
	if err != nil {
		return fmt.Errorf("coursejob: save course %s: %w", job.JobID, err)
	}
	return nil
}

// LoadJob reconstructs a completed job snapshot from the stored course.
func (s *Store) LoadJob(ctx context.Context, jobID string) (*Job, error) {
	var raw string
	var createdAt int64
	row := s.db.QueryRowContext(ctx, `SELECT course, created_at FROM courses WHERE job_id = ?`, jobID)
	switch err := row.Scan(&raw, &createdAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	case err != nil:
		return nil, fmt.Errorf("coursejob: load course %s: %w", jobID, err)
	}
	var course Course
	if err := json.Unmarshal([]byte(raw), &course); err != nil {
		return nil, fmt.Errorf("coursejob: decode course %s: %w", jobID, err)
	}
	return &Job{
		JobID:     jobID,
		Status:    StatusCompleted,
		Progress:  100,
		Message:   "Done",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Logs:      []string{"restored from persistent store"},
		Result:    &course,
	}, nil
}
