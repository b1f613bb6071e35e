package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/copyleftdev/bioristor/internal/errors"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/solver"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job tracks an asynchronous solve. Cancelling a running job discards its
// result; the run itself is bounded by its iteration limits.
type Job struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
	Report      *solver.Report `json:"report,omitempty"`
	Error       string         `json:"error,omitempty"`
	// Estimate is the last point of a diverged run.
	Estimate *solver.Estimate `json:"estimate,omitempty"`

	cancel context.CancelFunc
}

func (j *Job) terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// snapshot returns a copy safe to encode outside the lock.
func (j *Job) snapshot() Job {
	c := *j
	c.cancel = nil
	return c
}

// submit registers a job and starts it.
func (s *Server) submit(req SolveRequest) (Job, error) {
	p, err := s.parseRequest(req)
	if err != nil {
		return Job{}, err
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.reserveLocked() {
		return Job{}, apierrors.New(http.StatusServiceUnavailable, apierrors.CodeCapacity, "too many unfinished jobs")
	}

	ctx, cancel := context.WithCancel(s.ctx)
	now := time.Now()
	job := &Job{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		cancel:      cancel,
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	s.wg.Add(1)
	go s.run(ctx, job, p, req)

	s.logger.Info("Job submitted", map[string]interface{}{
		"job_id":    job.ID,
		"algorithm": p.Algorithm,
	})

	return job.snapshot(), nil
}

// reserveLocked makes room for one more job by forgetting the oldest
// finished ones. It reports false when every tracked job is unfinished.
func (s *Server) reserveLocked() bool {
	limit := s.cfg.Solver.MaxJobs
	if limit < 1 {
		limit = 1
	}

	kept := s.order[:0]
	excess := len(s.order) - limit + 1
	for _, id := range s.order {
		if excess > 0 && s.jobs[id].terminal() {
			delete(s.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept

	return len(s.order) < limit
}

// run executes a job on its own goroutine.
func (s *Server) run(ctx context.Context, job *Job, p solver.Profile, req SolveRequest) {
	defer s.wg.Done()
	defer job.cancel()

	// Wait for a worker. Cancelling the job or closing the server while it
	// is queued leaves it cancelled.
	if err := s.workers.Acquire(ctx, 1); err != nil {
		s.jobsMu.Lock()
		defer s.jobsMu.Unlock()
		if !job.terminal() {
			now := time.Now()
			job.Status = StatusCancelled
			job.EndTime = &now
			job.LastUpdated = now
		}
		return
	}
	defer s.workers.Release(1)

	s.jobsMu.Lock()
	if job.Status != StatusPending {
		s.jobsMu.Unlock()
		return
	}
	job.Status = StatusRunning
	job.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	report, err := s.solver.Solve(ctx, p, req.Currents)

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	now := time.Now()
	job.LastUpdated = now
	if job.Status == StatusCancelled {
		return
	}

	job.EndTime = &now
	if err != nil {
		s.logger.Warn("Job failed", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		job.Status = StatusFailed
		job.Error = err.Error()
		if errors.Is(err, optimization.ErrDiverged) {
			est := report.Estimate()
			job.Estimate = &est
		}
		return
	}

	job.Status = StatusCompleted
	job.Report = &report
}

// status returns a snapshot of a job.
func (s *Server) status(id string) (Job, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, apierrors.NotFound("job")
	}
	return job.snapshot(), nil
}

// cancelJob cancels an unfinished job.
func (s *Server) cancelJob(id string) (Job, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, apierrors.NotFound("job")
	}
	if job.terminal() {
		return Job{}, apierrors.New(http.StatusConflict, apierrors.CodeConflict,
			"cannot cancel job with status "+job.Status)
	}

	job.cancel()
	now := time.Now()
	job.Status = StatusCancelled
	job.EndTime = &now
	job.LastUpdated = now

	s.logger.Info("Job cancelled", map[string]interface{}{
		"job_id": id,
	})

	return job.snapshot(), nil
}
