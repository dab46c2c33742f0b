package agent

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fmuoria/interview-review-agent/internal/ingestion"
	"github.com/fmuoria/interview-review-agent/internal/logger"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

// ArtifactStore is the storage backend holding interview notes and their properties
type ArtifactStore interface {
	GetArtifact(ctx context.Context, id string) (models.Artifact, error)
	DownloadContent(ctx context.Context, id, mimeType string) ([]byte, string, error)
	ListChildren(ctx context.Context, q models.ChildQuery) ([]models.Artifact, error)
	ListInterviewArtifacts(ctx context.Context) ([]models.Artifact, error)
	UpdateProperties(ctx context.Context, id string, props map[string]string) error
}

// RecordStore persists the reviewer side-state of each artifact
type RecordStore interface {
	Find(ctx context.Context, fileID string) (models.CandidateRecord, error)
	Upsert(ctx context.Context, fileID string, u models.RecordUpdate) (models.CandidateRecord, error)
	Reset(ctx context.Context, fileID string) error
}

// JobFinder looks up hiring requisitions
type JobFinder interface {
	FindByName(ctx context.Context, name string) (models.Job, error)
}

// Evaluator runs the external evaluation workflow
type Evaluator interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.Value, error)
}

// Store names reported by PartialWriteError
const (
	storeRecord     = "candidate record"
	storeProperties = "artifact properties"
)

// ReviewAgent holds the collaborators shared by every request
type ReviewAgent struct {
	records   RecordStore
	jobs      JobFinder
	evaluator Evaluator
	extractor *ingestion.DocumentExtractor
}

// NewReviewAgent creates a new review agent
func NewReviewAgent(records RecordStore, jobs JobFinder, evaluator Evaluator) *ReviewAgent {
	return &ReviewAgent{
		records:   records,
		jobs:      jobs,
		evaluator: evaluator,
		extractor: ingestion.NewDocumentExtractor(),
	}
}

// WithArtifacts binds the caller's storage backend handle for one request
func (a *ReviewAgent) WithArtifacts(artifacts ArtifactStore) *Review {
	return &Review{
		ReviewAgent: a,
		artifacts:   artifacts,
		resolver:    ingestion.NewResolver(artifacts),
	}
}

// FindJobForPosition returns the job whose name equals positionMatch exactly
func (a *ReviewAgent) FindJobForPosition(ctx context.Context, positionMatch string) (models.Job, error) {
	if positionMatch == "" || positionMatch == models.NotFound {
		return models.Job{}, models.WrapOp("find job for position", positionMatch, models.ErrNotFound)
	}
	return a.jobs.FindByName(ctx, positionMatch)
}

// Review is a ReviewAgent bound to one caller's artifact store
type Review struct {
	*ReviewAgent
	artifacts ArtifactStore
	resolver  *ingestion.Resolver
}

// GetCandidateView merges the parsed note, the sibling recording and the
// stored record into one view. Undecodable content degrades the content
// fields to sentinels while a failed fetch is returned; a failing recording
// lookup leaves the recording fields nil.
func (r *Review) GetCandidateView(ctx context.Context, id string) (models.CandidateView, error) {
	artifact, err := r.artifacts.GetArtifact(ctx, id)
	if err != nil {
		return models.CandidateView{}, err
	}

	content, err := r.readContent(ctx, artifact)
	if err != nil {
		return models.CandidateView{}, err
	}
	fields := ingestion.ParseFields(content, ingestion.Tokenize(artifact.Name))

	var (
		sibling *models.SiblingRecording
		record  models.CandidateRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := r.resolver.FindSiblingRecording(gctx, artifact)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("file_id", id).Msg("sibling recording lookup failed")
			return nil
		}
		sibling = found
		return nil
	})
	g.Go(func() error {
		found, err := r.records.Find(gctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		record = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.CandidateView{}, err
	}

	return mergeView(artifact, fields, record, sibling), nil
}

// readContent downloads and decodes the artifact body. Content that cannot
// be decoded yields "" so the parser falls back to its sentinels; any other
// download failure is returned.
func (r *Review) readContent(ctx context.Context, artifact models.Artifact) (string, error) {
	log := logger.Ctx(ctx)

	raw, mimeType, err := r.artifacts.DownloadContent(ctx, artifact.ID, artifact.MimeType)
	if err != nil {
		if !errors.Is(err, models.ErrContentDecode) {
			return "", err
		}
		log.Warn().Err(err).Str("file_id", artifact.ID).Msg("content unreadable, content fields degraded")
		return "", nil
	}

	text, err := r.extractor.Extract(raw, mimeType)
	if err != nil {
		if !errors.Is(err, models.ErrContentDecode) {
			return "", models.WrapOp("extract content", artifact.ID, err)
		}
		log.Warn().Err(err).Str("file_id", artifact.ID).Str("mime_type", mimeType).Msg("content decode failed, content fields degraded")
		return "", nil
	}
	if !ingestion.IsRichDocument(mimeType) && ingestion.IsBinaryData(text) {
		log.Debug().Str("file_id", artifact.ID).Str("mime_type", mimeType).Msg("binary content read as text")
	}
	return text, nil
}

func mergeView(artifact models.Artifact, fields models.ParsedFields, record models.CandidateRecord, sibling *models.SiblingRecording) models.CandidateView {
	view := models.CandidateView{
		ID:              artifact.ID,
		Name:            artifact.Name,
		CreatedTime:     artifact.CreatedTime,
		MimeType:        artifact.MimeType,
		AppProperties:   artifact.AppProperties,
		ParsedFields:    fields,
		Status:          artifact.Status(),
		ManagerComment:  record.ManagerComment,
		WebhookResponse: record.WebhookResponse,
		JobID:           record.JobID,
	}
	if sibling != nil {
		id, link := sibling.ID, sibling.Link
		view.RecordingID = &id
		view.RecordingLink = &link
	}
	return view
}

// ApplyPatch upserts the record (creating it if absent) and, when the patch
// carries an email, then writes it to the artifact properties. If that
// second write fails the returned error is a *models.PartialWriteError.
func (r *Review) ApplyPatch(ctx context.Context, id string, patch models.CandidatePatch) (models.PatchResult, error) {
	if patch.Empty() {
		return models.PatchResult{}, models.Validationf("patch must set webhookResponse, managerComment or email")
	}

	if patch.Email == nil {
		if err := r.requireCandidate(ctx, id); err != nil {
			return models.PatchResult{}, err
		}
	}

	record, err := r.records.Upsert(ctx, id, models.RecordUpdate{
		ManagerComment:  patch.ManagerComment,
		WebhookResponse: patch.WebhookResponse,
	})
	if err != nil {
		return models.PatchResult{}, err
	}
	applied := []string{storeRecord}

	result := models.PatchResult{
		ID:              id,
		ManagerComment:  record.ManagerComment,
		WebhookResponse: record.WebhookResponse,
		JobID:           record.JobID,
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := r.artifacts.UpdateProperties(ctx, id, map[string]string{models.EmailProperty: email}); err != nil {
			return models.PatchResult{}, partialOrPlain(id, applied, err)
		}
		result.Email = email
	}
	return result, nil
}

// requireCandidate succeeds when either a record or the artifact exists
func (r *Review) requireCandidate(ctx context.Context, id string) error {
	_, err := r.records.Find(ctx, id)
	if err == nil || !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err = r.artifacts.GetArtifact(ctx, id)
	return err
}

// SubmitStatus runs the evaluation workflow for a pass or fail decision,
// stores its payload and then records the status on the artifact
func (r *Review) SubmitStatus(ctx context.Context, req models.SubmitStatusRequest) (models.SubmitStatusResult, error) {
	if req.FileID == "" {
		return models.SubmitStatusResult{}, models.Validationf("id is required")
	}
	if req.Status != models.StatusPass && req.Status != models.StatusFail {
		return models.SubmitStatusResult{}, models.Validationf("status must be %q or %q", models.StatusPass, models.StatusFail)
	}

	log := logger.Ctx(ctx).With().Str("file_id", req.FileID).Str("status", string(req.Status)).Logger()

	job := req.Job
	if job == nil {
		job = r.jobForCandidate(ctx, req)
	}

	result, err := r.evaluator.Evaluate(ctx, models.EvaluationRequest{
		FileID:         req.FileID,
		Status:         req.Status,
		ManagerComment: req.ManagerComment,
		Job:            job,
		Candidate:      req.Candidate,
	})
	if err != nil {
		log.Error().Err(err).Msg("evaluation failed")
		return models.SubmitStatusResult{}, err
	}

	update := models.RecordUpdate{
		ManagerComment:  &req.ManagerComment,
		WebhookResponse: result,
	}
	if job != nil && job.ID != "" {
		update.JobID = &job.ID
	}
	if _, err := r.records.Upsert(ctx, req.FileID, update); err != nil {
		return models.SubmitStatusResult{}, err
	}

	props := map[string]string{models.StatusProperty: string(req.Status)}
	if err := r.artifacts.UpdateProperties(ctx, req.FileID, props); err != nil {
		return models.SubmitStatusResult{}, partialOrPlain(req.FileID, []string{storeRecord}, err)
	}

	log.Info().Msg("candidate status submitted")
	return models.SubmitStatusResult{Success: true, Status: req.Status, WebhookData: result}, nil
}

// jobForCandidate resolves the job from the submitted positionMatch, if any
func (r *Review) jobForCandidate(ctx context.Context, req models.SubmitStatusRequest) *models.Job {
	raw, ok := req.Candidate["positionMatch"]
	if !ok {
		return nil
	}
	v, err := models.ParseValue(raw)
	if err != nil || v == nil {
		return nil
	}
	job, err := r.FindJobForPosition(ctx, v.String())
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Str("file_id", req.FileID).Msg("job lookup failed")
		}
		return nil
	}
	return &job
}

// Reevaluate clears the evaluation and comment of an existing record and
// moves the artifact back to pending
func (r *Review) Reevaluate(ctx context.Context, id string) error {
	if err := r.records.Reset(ctx, id); err != nil {
		return err
	}

	props := map[string]string{models.StatusProperty: string(models.StatusPending)}
	if err := r.artifacts.UpdateProperties(ctx, id, props); err != nil {
		return partialOrPlain(id, []string{storeRecord}, err)
	}

	logger.Ctx(ctx).Info().Str("file_id", id).Msg("candidate set for re-evaluation")
	return nil
}

// ListCandidates lists the interview notes with their review status
func (r *Review) ListCandidates(ctx context.Context) ([]models.CandidateSummary, error) {
	artifacts, err := r.artifacts.ListInterviewArtifacts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CandidateSummary, 0, len(artifacts))
	for _, a := range artifacts {
		summaries = append(summaries, models.CandidateSummary{
			ID:          a.ID,
			Name:        a.Name,
			CreatedTime: a.CreatedTime,
			MimeType:    a.MimeType,
			Status:      a.Status(),
		})
	}
	return summaries, nil
}

// CollectViews builds the view of every listed candidate with at most limit
// builds in flight. Views keep the listing order.
func (r *Review) CollectViews(ctx context.Context, limit int) ([]models.CandidateView, error) {
	summaries, err := r.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}

	views := make([]models.CandidateView, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, s := range summaries {
		g.Go(func() error {
			view, err := r.GetCandidateView(gctx, s.ID)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// partialOrPlain reports a failed write, as a PartialWriteError when an
// earlier store was already written
func partialOrPlain(id string, applied []string, err error) error {
	if len(applied) == 0 {
		return err
	}
	return &models.PartialWriteError{ID: id, Applied: applied, Failed: storeProperties, Err: err}
}
