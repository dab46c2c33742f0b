package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/fmuoria/interview-review-agent/internal/models"
	"github.com/fmuoria/interview-review-agent/internal/notify"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

// returnHome is the OAuth return target of a connect started outside a candidate page
const returnHome = "home"

// handleGetUser reports the caller's connected integrations
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email, err := s.reviewer(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.Users.Get(r.Context(), email)
	if errors.Is(err, models.ErrNotFound) {
		user, err = models.User{Email: email}, nil
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user.Status())
}

func (s *Server) handleSetClickUpToken(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "clickUpAccessToken", "ClickUp token saved.", s.Users.SetClickUpToken)
}

func (s *Server) handleSetManatalToken(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "manatalAccessToken", "Manatal token saved.", s.Users.SetManatalToken)
}

func (s *Server) handleSetSlackChannel(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "slackChannel", "Slack channel saved.", s.Users.SetSlackChannel)
}

// setUserField stores the single string field key of the body for the caller
func (s *Server) setUserField(w http.ResponseWriter, r *http.Request, key, message string, set func(ctx context.Context, email, value string) (models.User, error)) {
	email, err := s.reviewer(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body map[string]string
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	value := strings.TrimSpace(body[key])
	if value == "" {
		s.fail(w, r, models.Validationf("%s is required", key))
		return
	}

	user, err := set(r.Context(), email, value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"user":    user.Status(),
	})
}

// handleSlackConnect starts the Slack OAuth flow for the caller. The optional
// candidateId query parameter is where the callback sends the browser back to.
func (s *Server) handleSlackConnect(w http.ResponseWriter, r *http.Request) {
	email, err := s.reviewer(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	returnTo := r.URL.Query().Get("candidateId")
	if returnTo == "" {
		returnTo = returnHome
	}

	state := uuid.NewString()
	if err := s.States.Put(r.Context(), state, store.OAuthState{Email: email, ReturnTo: returnTo}); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, s.Slack.AuthCodeURL(state), http.StatusFound)
}

// handleSlackCallback completes the Slack OAuth flow started by handleSlackConnect
func (s *Server) handleSlackCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		s.fail(w, r, models.Validationf("slack authorization failed: %s", errParam))
		return
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		s.fail(w, r, models.Validationf("missing code or state"))
		return
	}

	pending, err := s.States.Take(r.Context(), state)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			err = models.Validationf("invalid or expired state")
		}
		s.fail(w, r, err)
		return
	}

	auth, err := s.Slack.Exchange(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.Users.SaveSlackAuth(r.Context(), pending.Email, auth); err != nil {
		s.fail(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("email", pending.Email).Str("slack_team", auth.TeamID).Msg("slack connected")

	http.Redirect(w, r, s.returnURL(pending.ReturnTo), http.StatusFound)
}

// returnURL is the front-end page a finished OAuth flow lands on
func (s *Server) returnURL(returnTo string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	if returnTo == "" || returnTo == returnHome {
		return base + "/"
	}
	return base + "/candidate/" + url.PathEscape(returnTo)
}

// handleSendMessage forwards the body to the chat workflow with the caller's tokens
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	email, err := s.reviewer(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.Users.Get(r.Context(), email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if user.SlackAccessToken == "" {
		s.fail(w, r, models.Validationf("Slack not connected"))
		return
	}

	var data json.RawMessage
	if err := decodeJSON(w, r, &data); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.Poster.Post(r.Context(), notify.NewMessage(user, data)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleManatal searches the applicant-tracking system for ?email=
func (s *Server) handleManatal(w http.ResponseWriter, r *http.Request) {
	candidateEmail := strings.TrimSpace(r.URL.Query().Get("email"))
	if candidateEmail == "" {
		s.fail(w, r, models.Validationf("email query parameter is required"))
		return
	}

	email, err := s.reviewer(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.Users.Get(r.Context(), email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if user.ManatalAccessToken == "" {
		s.respondError(w, http.StatusNotFound, "Manatal not connected")
		return
	}

	data, err := s.Manatal.FindCandidates(r.Context(), user.ManatalAccessToken, candidateEmail)
	if err != nil {
		var statusErr *notify.StatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 600 {
			hlog.FromRequest(r).Warn().Err(err).Msg("manatal lookup failed")
			s.respondError(w, statusErr.Code, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}
