package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/fmuoria/interview-review-agent/internal/export"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

// handleListFiles lists the interview notes visible to the caller
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	files, err := review.ListCandidates(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, files)
}

// handleGetFile returns the merged candidate view of one file
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := review.GetCandidateView(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

// handlePatchFile applies a partial update to one candidate
func (s *Server) handlePatchFile(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var patch models.CandidatePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := review.ApplyPatch(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleSubmitStatus triggers the evaluation workflow for a decision. The
// body is the candidate view plus status, managerComment and job.
func (s *Server) handleSubmitStatus(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := submitRequest(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := review.SubmitStatus(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// submitRequest splits the webhook body into its control fields and the
// candidate fields forwarded to the workflow
func submitRequest(body map[string]json.RawMessage) (models.SubmitStatusRequest, error) {
	var req models.SubmitStatusRequest
	control := map[string]interface{}{
		"id":             &req.FileID,
		"status":         &req.Status,
		"managerComment": &req.ManagerComment,
		"job":            &req.Job,
	}
	for key, dst := range control {
		raw, ok := body[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return models.SubmitStatusRequest{}, models.Validationf("invalid %s: %v", key, err)
		}
	}
	if req.FileID == "" || req.Status == "" {
		return models.SubmitStatusRequest{}, models.Validationf("Missing fileId or status")
	}

	req.Candidate = make(map[string]json.RawMessage, len(body))
	for key, raw := range body {
		if _, isControl := control[key]; !isControl {
			req.Candidate[key] = raw
		}
	}
	return req, nil
}

// handleReevaluate moves a reviewed candidate back to pending
func (s *Server) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := review.Reevaluate(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Candidate set for re-evaluation.",
	})
}

// handleExport streams every candidate as an Excel workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	review, err := s.review(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views, err := review.CollectViews(r.Context(), s.ExportConcurrency)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, views, now); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="candidates-%s.xlsx"`, now.UTC().Format("20060102")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write export")
	}
}
