package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fmuoria/interview-review-agent/internal/logger"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

// Message is what the send-to workflow posts to Slack (and ClickUp/Manatal)
// on the reviewer's behalf
type Message struct {
	Token        string          `json:"token"`
	ClickUpToken string          `json:"clickUpToken"`
	Data         json.RawMessage `json:"data"`
	ManatalToken string          `json:"manatalToken"`
}

// NewMessage builds the message for user carrying data
func NewMessage(user models.User, data json.RawMessage) Message {
	return Message{
		Token:        user.SlackAccessToken,
		ClickUpToken: user.ClickUpAccessToken,
		Data:         data,
		ManatalToken: user.ManatalAccessToken,
	}
}

// ChatPoster forwards messages to the n8n send-to webhook
type ChatPoster struct {
	url    string
	client *http.Client
}

// NewChatPoster creates a poster; a nil client uses http.DefaultClient
func NewChatPoster(url string, client *http.Client) *ChatPoster {
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatPoster{url: url, client: client}
}

// Post delivers msg; any non-2xx answer is a *StatusError
func (p *ChatPoster) Post(ctx context.Context, msg Message) error {
	if p.url == "" {
		return fmt.Errorf("%w: send-to webhook is not configured", models.ErrUpstreamUnavailable)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send-to webhook: %w", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Ctx(ctx).Error().
			Int("status_code", resp.StatusCode).
			Str("body", string(detail)).
			Msg("send-to webhook rejected message")
		return &StatusError{Service: "send-to webhook", Code: resp.StatusCode}
	}
	return nil
}
