package evaluation

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

// maxResponseBytes caps how much of a workflow response is read
const maxResponseBytes = 4 << 20

// WebhookEvaluator posts the candidate to an n8n webhook and returns its
// JSON response as the evaluation
type WebhookEvaluator struct {
	url    string
	client *http.Client
}

// NewWebhookEvaluator creates a webhook evaluator; a nil client uses http.DefaultClient
func NewWebhookEvaluator(url string, client *http.Client) *WebhookEvaluator {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookEvaluator{url: url, client: client}
}

// Evaluate posts the request synchronously. Transport failures and non-2xx
// responses wrap models.ErrUpstreamUnavailable.
func (e *WebhookEvaluator) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.Value, error) {
	body, err := payload(req)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("failed to encode payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: failed to read response: %w", models.ErrUpstreamUnavailable, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Ctx(ctx).Warn().
			Str("file_id", req.FileID).
			Int("status_code", resp.StatusCode).
			Msg("evaluation webhook rejected request")
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: webhook returned status %d", models.ErrUpstreamUnavailable, resp.StatusCode))
	}

	result, err := models.ParseValue(raw)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: invalid webhook response: %w", models.ErrUpstreamUnavailable, err))
	}
	return result, nil
}

// Close is a no-op
func (e *WebhookEvaluator) Close() error {
	return nil
}
