package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/ingest"
)

// === Background ingest jobs ===

// Job states.
const (
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// ingestJob tracks one background ingest run.
type ingestJob struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	State     string         `json:"state"`
	StartedAt time.Time      `json:"started_at"`
	Report    *ingest.Report `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// startIngest launches an ingest run detached from the request context
// and returns the job id immediately.
func (s *Server) startIngest(project, dir string) string {
	job := &ingestJob{
		ID:        uuid.NewString(),
		Project:   project,
		State:     JobRunning,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go func() {
		report, err := s.Loader.Run(context.Background(), dir)
		if err == nil && report.Project != project {
			err = apperrors.New(apperrors.ErrCodeInvalidManifest,
				"manifest project %q does not match %q", report.Project, project)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			job.State = JobFailed
			job.Error = apperrors.UserMessage(err)
			s.Logger.Error("ingest failed", "job", job.ID, "project", project, "error", err)
			return
		}
		job.State = JobDone
		job.Report = report
		s.Logger.Info("ingest complete",
			"job", job.ID,
			"project", project,
			"files", report.Files,
			"elements", report.Elements)
	}()
	return job.ID
}

// jobByID returns a snapshot of one job.
func (s *Server) jobByID(id string) (ingestJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return ingestJob{}, false
	}
	return *job, true
}
