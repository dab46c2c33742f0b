package api

import (
	"net/http"

	"github.com/fmuoria/interview-review-agent/internal/models"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

// jobEnvelope is the {success, data} shape of the job CRUD responses
type jobEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) respondJob(w http.ResponseWriter, status int, data interface{}) {
	s.respondJSON(w, status, jobEnvelope{Success: true, Data: data})
}

func (s *Server) failJob(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case status == http.StatusNotFound:
		message = "Job not found"
	case status == http.StatusConflict:
		message = "A job with this name or externalTaskId already exists"
	case status >= http.StatusInternalServerError:
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, status, jobEnvelope{Success: false, Error: message})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Jobs.List(r.Context())
	if err != nil {
		s.failJob(w, r, err)
		return
	}
	s.respondJob(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in store.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.failJob(w, r, err)
		return
	}

	job, err := s.Jobs.Create(r.Context(), in)
	if err != nil {
		s.failJob(w, r, err)
		return
	}
	s.respondJob(w, http.StatusCreated, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var in store.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.failJob(w, r, err)
		return
	}

	job, err := s.Jobs.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.failJob(w, r, err)
		return
	}
	s.respondJob(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.Jobs.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.failJob(w, r, err)
		return
	}
	s.respondJob(w, http.StatusOK, struct{}{})
}

// handleFindJob looks a job up by its exact name (?jobName=) and returns
// the bare job
func (s *Server) handleFindJob(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("jobName")
	if name == "" {
		s.failJob(w, r, models.Validationf("jobName query parameter is required"))
		return
	}

	job, err := s.Agent.FindJobForPosition(r.Context(), name)
	if err != nil {
		s.failJob(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}
