package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// ManatalClient looks candidates up in the Manatal ATS
type ManatalClient struct {
	baseURL string
	client  *http.Client
}

// NewManatalClient creates a client for baseURL; a nil client uses http.DefaultClient
func NewManatalClient(baseURL string, client *http.Client) *ManatalClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ManatalClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// FindCandidates returns Manatal's answer for the candidates registered with
// email. A non-success status is returned as a *StatusError carrying it.
func (c *ManatalClient) FindCandidates(ctx context.Context, token, email string) (*models.Value, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: manatal access token not found", models.ErrNotFound)
	}
	if email == "" {
		return nil, models.Validationf("email is required")
	}

	endpoint := fmt.Sprintf("%s/candidates/?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: manatal: %w", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read manatal response: %w", models.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Service: "Manatal", Code: resp.StatusCode}
	}

	data, err := models.ParseValue(body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid manatal response: %w", models.ErrUpstreamUnavailable, err)
	}
	return data, nil
}
