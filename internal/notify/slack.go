// Package notify talks to the chat and applicant-tracking services a reviewer connects
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/models"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

// SlackEndpoint is Slack's OAuth v2 endpoint
var SlackEndpoint = oauth2.Endpoint{
	AuthURL:   "https://slack.com/oauth/v2/authorize",
	TokenURL:  "https://slack.com/api/oauth.v2.access",
	AuthStyle: oauth2.AuthStyleInParams,
}

// SlackOAuth runs the Slack "connect" flow for a reviewer
type SlackOAuth struct {
	conf   *oauth2.Config
	scopes string
	client *http.Client
}

// NewSlackOAuth creates the Slack OAuth flow; a nil client uses http.DefaultClient
func NewSlackOAuth(cfg config.SlackConfig, client *http.Client) *SlackOAuth {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackOAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     SlackEndpoint,
		},
		scopes: strings.Join(cfg.UserScopes, ","),
		client: client,
	}
}

// WithEndpoint points the flow at another authorize/token endpoint
func (s *SlackOAuth) WithEndpoint(ep oauth2.Endpoint) *SlackOAuth {
	conf := *s.conf
	conf.Endpoint = ep
	return &SlackOAuth{conf: &conf, scopes: s.scopes, client: s.client}
}

// AuthCodeURL returns the Slack consent page URL carrying state
func (s *SlackOAuth) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", s.scopes),
		oauth2.SetAuthURLParam("user_scope", s.scopes),
	)
}

type slackAccessResponse struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	AuthedUser struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
	} `json:"authed_user"`
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
}

// Exchange trades an authorization code for the reviewer's user token.
// Slack reports failures in the body with ok=false, which maps to
// models.ErrUnauthorized.
func (s *SlackOAuth) Exchange(ctx context.Context, code string) (store.SlackAuth, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {s.conf.ClientID},
		"client_secret": {s.conf.ClientSecret},
		"redirect_uri":  {s.conf.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.conf.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return store.SlackAuth{}, fmt.Errorf("failed to build slack token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return store.SlackAuth{}, fmt.Errorf("%w: slack token exchange: %w", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return store.SlackAuth{}, fmt.Errorf("%w: failed to read slack response: %w", models.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return store.SlackAuth{}, &StatusError{Service: "slack", Code: resp.StatusCode}
	}

	var data slackAccessResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return store.SlackAuth{}, fmt.Errorf("%w: invalid slack response: %w", models.ErrUpstreamUnavailable, err)
	}
	if !data.OK {
		return store.SlackAuth{}, fmt.Errorf("%w: slack oauth error: %s", models.ErrUnauthorized, data.Error)
	}
	if data.AuthedUser.AccessToken == "" {
		return store.SlackAuth{}, fmt.Errorf("%w: slack response carries no user token", models.ErrUnauthorized)
	}

	return store.SlackAuth{
		AccessToken: data.AuthedUser.AccessToken,
		UserID:      data.AuthedUser.ID,
		TeamID:      data.Team.ID,
	}, nil
}

// StatusError is a non-success HTTP status returned by an integration.
// It unwraps to models.ErrUpstreamUnavailable.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Service, e.Code)
}

func (e *StatusError) Unwrap() error {
	return models.ErrUpstreamUnavailable
}
