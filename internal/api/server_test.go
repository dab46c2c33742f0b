package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/fmuoria/interview-review-agent/internal/agent"
	"github.com/fmuoria/interview-review-agent/internal/models"
	"github.com/fmuoria/interview-review-agent/internal/notify"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

const (
	testToken = "ya29.test"
	notesID   = "notes-1"
	notesName = "Acme Interview (Jane Doe) 2024_03_15 14_30 PDT - Notes by Gemini"
)

type memArtifacts struct {
	mu        sync.Mutex
	files     map[string]models.Artifact
	updateErr error
}

func (m *memArtifacts) GetArtifact(ctx context.Context, id string) (models.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.files[id]
	if !ok {
		return models.Artifact{}, models.WrapOp("get file", id, models.ErrNotFound)
	}
	return a, nil
}

func (m *memArtifacts) DownloadContent(ctx context.Context, id, mimeType string) ([]byte, string, error) {
	return []byte("Summary\nSolid interview.\nDetails\nReach me at jane@example.com"), "text/plain", nil
}

func (m *memArtifacts) ListChildren(ctx context.Context, q models.ChildQuery) ([]models.Artifact, error) {
	return nil, nil
}

func (m *memArtifacts) ListInterviewArtifacts(ctx context.Context) ([]models.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Artifact, 0, len(m.files))
	for _, a := range m.files {
		out = append(out, a)
	}
	return out, nil
}

func (m *memArtifacts) UpdateProperties(ctx context.Context, id string, props map[string]string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.files[id]
	if a.AppProperties == nil {
		a.AppProperties = map[string]string{}
	}
	for k, v := range props {
		a.AppProperties[k] = v
	}
	m.files[id] = a
	return nil
}

type memRecords struct {
	mu   sync.Mutex
	rows map[string]models.CandidateRecord
}

func (m *memRecords) Find(ctx context.Context, fileID string) (models.CandidateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[fileID]
	if !ok {
		return models.CandidateRecord{}, models.ErrNotFound
	}
	return rec, nil
}

func (m *memRecords) Upsert(ctx context.Context, fileID string, u models.RecordUpdate) (models.CandidateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.rows[fileID]
	rec.FileID = fileID
	if u.ManagerComment != nil {
		rec.ManagerComment = *u.ManagerComment
	}
	if u.WebhookResponse != nil {
		rec.WebhookResponse = u.WebhookResponse
	}
	if u.JobID != nil {
		rec.JobID = *u.JobID
	}
	m.rows[fileID] = rec
	return rec, nil
}

func (m *memRecords) Reset(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[fileID]
	if !ok {
		return models.ErrNotFound
	}
	rec.ManagerComment, rec.WebhookResponse = "", nil
	m.rows[fileID] = rec
	return nil
}

type memJobs struct {
	mu   sync.Mutex
	jobs []models.Job
}

func (m *memJobs) List(ctx context.Context) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Job(nil), m.jobs...), nil
}

func (m *memJobs) Create(ctx context.Context, in store.JobInput) (models.Job, error) {
	if err := in.Validate(); err != nil {
		return models.Job{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Name == in.Name || j.ExternalTaskID == in.ExternalTaskID {
			return models.Job{}, models.ErrConflict
		}
	}
	job := models.Job{ID: "job-" + in.ExternalTaskID, Name: in.Name, ExternalTaskID: in.ExternalTaskID, Prompt: in.Prompt}
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *memJobs) Update(ctx context.Context, id string, in store.JobInput) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.jobs {
		if j.ID == id {
			m.jobs[i].Name, m.jobs[i].Prompt = in.Name, in.Prompt
			return m.jobs[i], nil
		}
	}
	return models.Job{}, models.ErrNotFound
}

func (m *memJobs) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.jobs {
		if j.ID == id {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memJobs) FindByName(ctx context.Context, name string) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Name == name {
			return j, nil
		}
	}
	return models.Job{}, models.ErrNotFound
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memUsers) Get(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) update(email string, fn func(*models.User)) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[email]
	u.Email = email
	fn(&u)
	m.users[email] = u
	return u, nil
}

func (m *memUsers) SaveSlackAuth(ctx context.Context, email string, auth store.SlackAuth) (models.User, error) {
	return m.update(email, func(u *models.User) {
		u.SlackAccessToken, u.SlackUserID, u.SlackTeamID = auth.AccessToken, auth.UserID, auth.TeamID
	})
}

func (m *memUsers) SetClickUpToken(ctx context.Context, email, token string) (models.User, error) {
	return m.update(email, func(u *models.User) { u.ClickUpAccessToken = token })
}

func (m *memUsers) SetManatalToken(ctx context.Context, email, token string) (models.User, error) {
	return m.update(email, func(u *models.User) { u.ManatalAccessToken = token })
}

func (m *memUsers) SetSlackChannel(ctx context.Context, email, channel string) (models.User, error) {
	return m.update(email, func(u *models.User) { u.SlackChannel = channel })
}

type memStates map[string]store.OAuthState

func (m memStates) Put(ctx context.Context, state string, st store.OAuthState) error {
	m[state] = st
	return nil
}

func (m memStates) Take(ctx context.Context, state string) (store.OAuthState, error) {
	st, ok := m[state]
	if !ok {
		return store.OAuthState{}, models.ErrNotFound
	}
	delete(m, state)
	return st, nil
}

type stubSlack struct{ exchangeErr error }

func (stubSlack) AuthCodeURL(state string) string {
	return "https://slack.com/oauth/v2/authorize?state=" + state
}

func (s stubSlack) Exchange(ctx context.Context, code string) (store.SlackAuth, error) {
	if s.exchangeErr != nil {
		return store.SlackAuth{}, s.exchangeErr
	}
	return store.SlackAuth{AccessToken: "xoxp-" + code, UserID: "U1", TeamID: "T1"}, nil
}

type recordingPoster struct {
	sent []notify.Message
	err  error
}

func (p *recordingPoster) Post(ctx context.Context, msg notify.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

type stubManatal struct {
	result *models.Value
	err    error
}

func (s stubManatal) FindCandidates(ctx context.Context, token, email string) (*models.Value, error) {
	return s.result, s.err
}

type stubIdentity struct{}

func (stubIdentity) Email(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	tok, err := ts.Token()
	if err != nil || tok.AccessToken != testToken {
		return "", models.ErrUnauthorized
	}
	return "reviewer@example.com", nil
}

type stubEvaluator struct{ result *models.Value }

func (s stubEvaluator) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.Value, error) {
	return s.result, nil
}

type harness struct {
	server    *Server
	handler   http.Handler
	artifacts *memArtifacts
	records   *memRecords
	jobs      *memJobs
	users     *memUsers
	states    memStates
	poster    *recordingPoster
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	verdict := models.Record(map[string]models.Value{"verdict": models.Leaf("hire")})
	h := &harness{
		artifacts: &memArtifacts{files: map[string]models.Artifact{
			notesID: {ID: notesID, Name: notesName, MimeType: "text/plain", Parents: []string{"folder-1"}},
		}},
		records: &memRecords{rows: map[string]models.CandidateRecord{}},
		jobs:    &memJobs{jobs: []models.Job{{ID: "job-1", Name: "Acme", ExternalTaskID: "task-1"}}},
		users:   &memUsers{users: map[string]models.User{}},
		states:  memStates{},
		poster:  &recordingPoster{},
	}
	h.server = NewServer(Deps{
		Agent:    agent.NewReviewAgent(h.records, h.jobs, stubEvaluator{result: &verdict}),
		Identity: stubIdentity{},
		OpenArtifacts: func(ctx context.Context, ts oauth2.TokenSource) (agent.ArtifactStore, error) {
			return h.artifacts, nil
		},
		Jobs:              h.jobs,
		Users:             h.users,
		States:            h.states,
		Slack:             stubSlack{},
		Poster:            h.poster,
		Manatal:           stubManatal{result: &verdict},
		BaseURL:           "https://review.example.com/",
		ExportConcurrency: 2,
	})
	h.server.now = func() time.Time { return time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC) }
	h.handler = h.server.Router()
	return h
}

func (h *harness) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	h.server.Ready = func(ctx context.Context) error { return errors.New("mysql down") }
	rec = h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCandidateEndpointsRequireCredentials(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/drive/files", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetFile(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/drive/file/"+notesID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Jane Doe", body["candidateName"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Solid interview.", body["summary"])
	assert.Nil(t, body["webhookResponse"])

	rec = h.do(t, http.MethodGet, "/api/drive/file/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFiles(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/drive/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var files []models.CandidateSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, notesID, files[0].ID)
}

func TestPatchFile(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/api/drive/file/"+notesID, map[string]string{"managerComment": "strong"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "strong", decodeBody(t, rec)["managerComment"])
	assert.Equal(t, "strong", h.records.rows[notesID].ManagerComment)

	rec = h.do(t, http.MethodPatch, "/api/drive/file/"+notesID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPatch, "/api/drive/file/"+notesID, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitStatusAndReevaluate(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/webhook", map[string]interface{}{
		"id":             notesID,
		"status":         "pass",
		"managerComment": "great fit",
		"candidateName":  "Jane Doe",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pass", body["status"])
	assert.Equal(t, "pass", h.artifacts.files[notesID].AppProperties["status"])

	rec = h.do(t, http.MethodPost, "/api/candidate/"+notesID+"/reevaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Candidate set for re-evaluation.", decodeBody(t, rec)["message"])
	assert.Equal(t, "pending", h.artifacts.files[notesID].AppProperties["status"])
	assert.Nil(t, h.records.rows[notesID].WebhookResponse)
}

func TestSubmitStatusValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/webhook", map[string]string{"status": "pass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "Missing fileId or status")

	rec = h.do(t, http.MethodPost, "/api/webhook", map[string]string{"id": notesID, "status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitStatusPartialWrite(t *testing.T) {
	h := newHarness(t)
	h.artifacts.updateErr = models.ErrUpstreamUnavailable

	rec := h.do(t, http.MethodPost, "/api/webhook", map[string]string{"id": notesID, "status": "fail"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "partially applied")
}

func TestSubmitRequestSplitsControlFields(t *testing.T) {
	body := map[string]json.RawMessage{
		"id":             json.RawMessage(`"f1"`),
		"status":         json.RawMessage(`"fail"`),
		"managerComment": json.RawMessage(`"no"`),
		"job":            json.RawMessage(`null`),
		"email":          json.RawMessage(`"a@b.c"`),
	}
	req, err := submitRequest(body)
	require.NoError(t, err)
	assert.Equal(t, "f1", req.FileID)
	assert.Equal(t, models.StatusFail, req.Status)
	assert.Equal(t, "no", req.ManagerComment)
	assert.Nil(t, req.Job)
	assert.Equal(t, map[string]json.RawMessage{"email": json.RawMessage(`"a@b.c"`)}, req.Candidate)

	_, err = submitRequest(map[string]json.RawMessage{"id": json.RawMessage(`42`), "status": json.RawMessage(`"pass"`)})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/candidates/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "candidates-20240316.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestJobEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = h.do(t, http.MethodPost, "/api/job", store.JobInput{Name: "Globex", ExternalTaskID: "task-2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "job-task-2", data["_id"])

	rec = h.do(t, http.MethodPost, "/api/job", store.JobInput{Name: "Globex", ExternalTaskID: "task-2"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	rec = h.do(t, http.MethodPost, "/api/job", store.JobInput{Name: "NoTask"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/job/find-by-name?jobName=Globex", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Equal(t, "job-task-2", found.ID)
	assert.Equal(t, "Globex", found.Name)
	rec = h.do(t, http.MethodGet, "/api/job/find-by-name?jobName=%20Globex", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "names match exactly")
	rec = h.do(t, http.MethodGet, "/api/job/find-by-name?jobName=glob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", decodeBody(t, rec)["error"])
	rec = h.do(t, http.MethodGet, "/api/job/find-by-name", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/job/job-task-2", store.JobInput{Name: "Globex Corp", ExternalTaskID: "task-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPut, "/api/job/nope", store.JobInput{Name: "x", ExternalTaskID: "y"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/job/job-task-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/job/job-task-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserSettings(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["slackConnected"])

	rec = h.do(t, http.MethodPost, "/api/user/clickup-token", map[string]string{"clickUpAccessToken": "pk_1"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, true, user["clickUpConnected"])
	assert.NotContains(t, rec.Body.String(), "pk_1")

	rec = h.do(t, http.MethodPost, "/api/user/manatal-token", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/user/slack-channel", map[string]string{"slackChannel": "#hiring"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#hiring", h.users.users["reviewer@example.com"].SlackChannel)
}

func TestSlackOAuthFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/auth/slack?candidateId="+notesID, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, store.OAuthState{Email: "reviewer@example.com", ReturnTo: notesID}, h.states[state])

	rec = h.do(t, http.MethodGet, "/api/auth/slack/callback?code=abc&state="+state, nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "https://review.example.com/candidate/"+notesID, rec.Header().Get("Location"))
	assert.Equal(t, "xoxp-abc", h.users.users["reviewer@example.com"].SlackAccessToken)

	rec = h.do(t, http.MethodGet, "/api/auth/slack/callback?code=abc&state="+state, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "state is single use")

	rec = h.do(t, http.MethodGet, "/api/auth/slack/callback?state=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlackConnectReturnsHome(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/auth/slack", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, _ := url.Parse(rec.Header().Get("Location"))
	state := loc.Query().Get("state")
	rec = h.do(t, http.MethodGet, "/api/auth/slack/callback?code=abc&state="+state, nil)
	assert.Equal(t, "https://review.example.com/", rec.Header().Get("Location"))
}

func TestSendMessage(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/slack/send-message", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "Slack not connected")

	h.users.users["reviewer@example.com"] = models.User{Email: "reviewer@example.com", SlackAccessToken: "xoxp-1", ClickUpAccessToken: "pk_1"}
	rec = h.do(t, http.MethodPost, "/api/slack/send-message", map[string]string{"text": "hi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.poster.sent, 1)
	assert.Equal(t, "xoxp-1", h.poster.sent[0].Token)
	assert.Equal(t, "pk_1", h.poster.sent[0].ClickUpToken)
	assert.JSONEq(t, `{"text":"hi"}`, string(h.poster.sent[0].Data))

	h.poster.err = &notify.StatusError{Service: "send-to", Code: http.StatusInternalServerError}
	rec = h.do(t, http.MethodPost, "/api/slack/send-message", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestManatal(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/manatal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/manatal?email=jane@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.users.users["reviewer@example.com"] = models.User{Email: "reviewer@example.com", ManatalAccessToken: "mt"}
	rec = h.do(t, http.MethodGet, "/api/manatal?email=jane@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"verdict": "hire"}, decodeBody(t, rec)["data"])

	h.server.Manatal = stubManatal{err: &notify.StatusError{Service: "Manatal", Code: http.StatusForbidden}}
	rec = h.do(t, http.MethodGet, "/api/manatal?email=jane@example.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusFor(t *testing.T) {
	partial := &models.PartialWriteError{ID: "f", Failed: "artifact properties", Err: models.ErrUnauthorized}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.Validationf("bad"), http.StatusBadRequest},
		{"unauthorized", models.WrapOp("get file", "f", models.ErrUnauthorized), http.StatusUnauthorized},
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"conflict", models.ErrConflict, http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"upstream", models.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"status error", &notify.StatusError{Service: "slack", Code: 500}, http.StatusBadGateway},
		{"partial beats cause", partial, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	s := NewServer(Deps{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.fail(rec, req, errors.New("dsn user:secret@tcp"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "secret"))
}
