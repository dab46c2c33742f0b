package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/fmuoria/interview-review-agent/internal/agent"
	"github.com/fmuoria/interview-review-agent/internal/auth"
	"github.com/fmuoria/interview-review-agent/internal/logger"
	"github.com/fmuoria/interview-review-agent/internal/models"
	"github.com/fmuoria/interview-review-agent/internal/notify"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

// ArtifactOpener opens the caller's artifact store for one request
type ArtifactOpener func(ctx context.Context, ts oauth2.TokenSource) (agent.ArtifactStore, error)

// IdentityResolver resolves the reviewer's e-mail from their credential
type IdentityResolver interface {
	Email(ctx context.Context, ts oauth2.TokenSource) (string, error)
}

// JobStore manages hiring requisitions
type JobStore interface {
	List(ctx context.Context) ([]models.Job, error)
	Create(ctx context.Context, in store.JobInput) (models.Job, error)
	Update(ctx context.Context, id string, in store.JobInput) (models.Job, error)
	Delete(ctx context.Context, id string) error
	FindByName(ctx context.Context, name string) (models.Job, error)
}

// UserStore keeps each reviewer's integration settings
type UserStore interface {
	Get(ctx context.Context, email string) (models.User, error)
	SaveSlackAuth(ctx context.Context, email string, auth store.SlackAuth) (models.User, error)
	SetClickUpToken(ctx context.Context, email, token string) (models.User, error)
	SetManatalToken(ctx context.Context, email, token string) (models.User, error)
	SetSlackChannel(ctx context.Context, email, channel string) (models.User, error)
}

// StateStore keeps OAuth state between the redirect and the callback
type StateStore interface {
	Put(ctx context.Context, state string, st store.OAuthState) error
	Take(ctx context.Context, state string) (store.OAuthState, error)
}

// SlackFlow is the Slack OAuth connect flow
type SlackFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (store.SlackAuth, error)
}

// ChatPoster delivers messages to the chat workflow
type ChatPoster interface {
	Post(ctx context.Context, msg notify.Message) error
}

// CandidateLookup searches the applicant-tracking system
type CandidateLookup interface {
	FindCandidates(ctx context.Context, token, email string) (*models.Value, error)
}

// Deps are the collaborators of a Server
type Deps struct {
	Agent             *agent.ReviewAgent
	Credentials       auth.CredentialProvider
	Identity          IdentityResolver
	OpenArtifacts     ArtifactOpener
	Jobs              JobStore
	Users             UserStore
	States            StateStore
	Slack             SlackFlow
	Poster            ChatPoster
	Manatal           CandidateLookup
	Ready             func(ctx context.Context) error
	BaseURL           string
	ExportConcurrency int
}

// Server handles HTTP requests
type Server struct {
	Deps
	now func() time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	if deps.Credentials == nil {
		deps.Credentials = auth.RequestCredentials{}
	}
	return &Server{Deps: deps, now: time.Now}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/drive/files", s.handleListFiles)
	mux.HandleFunc("GET /api/drive/file/{id}", s.handleGetFile)
	mux.HandleFunc("PATCH /api/drive/file/{id}", s.handlePatchFile)
	mux.HandleFunc("POST /api/webhook", s.handleSubmitStatus)
	mux.HandleFunc("POST /api/candidate/{id}/reevaluate", s.handleReevaluate)
	mux.HandleFunc("GET /api/candidates/export", s.handleExport)

	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/job", s.handleCreateJob)
	mux.HandleFunc("GET /api/job/find-by-name", s.handleFindJob)
	mux.HandleFunc("PUT /api/job/{id}", s.handleUpdateJob)
	mux.HandleFunc("DELETE /api/job/{id}", s.handleDeleteJob)

	mux.HandleFunc("GET /api/user", s.handleGetUser)
	mux.HandleFunc("POST /api/user/clickup-token", s.handleSetClickUpToken)
	mux.HandleFunc("POST /api/user/manatal-token", s.handleSetManatalToken)
	mux.HandleFunc("POST /api/user/slack-channel", s.handleSetSlackChannel)

	mux.HandleFunc("GET /api/auth/slack", s.handleSlackConnect)
	mux.HandleFunc("GET /api/auth/slack/callback", s.handleSlackCallback)
	mux.HandleFunc("POST /api/slack/send-message", s.handleSendMessage)
	mux.HandleFunc("GET /api/manatal", s.handleManatal)

	return s.loggingMiddleware(mux)
}

// loggingMiddleware attaches a request-scoped logger and writes an access log
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		event := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			event = hlog.FromRequest(r).Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(next)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(logger.Logger)(h)
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ready != nil {
		if err := s.Ready(r.Context()); err != nil {
			s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// review binds the caller's credential to a Review
func (s *Server) review(r *http.Request) (*agent.Review, error) {
	ts, err := s.Credentials.TokenSource(r)
	if err != nil {
		return nil, err
	}
	artifacts, err := s.OpenArtifacts(r.Context(), ts)
	if err != nil {
		return nil, err
	}
	return s.Agent.WithArtifacts(artifacts), nil
}

// reviewer resolves the caller's e-mail
func (s *Server) reviewer(r *http.Request) (string, error) {
	ts, err := s.Credentials.TokenSource(r)
	if err != nil {
		return "", err
	}
	return s.Identity.Email(r.Context(), ts)
}

// decodeJSON reads a JSON request body of at most 1 MiB into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		return models.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

// statusFor maps an error onto an HTTP status code
func statusFor(err error) int {
	var statusErr *notify.StatusError
	switch {
	case errors.Is(err, models.ErrPartialWrite):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &statusErr), errors.Is(err, models.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and responds with its mapped status
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("request failed")
		if status == http.StatusInternalServerError && !errors.Is(err, models.ErrPartialWrite) {
			message = "internal server error"
		}
	} else {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	s.respondError(w, status, message)
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
