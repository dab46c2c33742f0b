// Package evaluation runs the external candidate evaluation workflow
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

// Evaluator turns a reviewer decision into an evaluation payload
type Evaluator interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.Value, error)
	Close() error
}

// New builds the evaluator selected by cfg.Provider
func New(ctx context.Context, cfg config.EvaluatorConfig) (Evaluator, error) {
	switch cfg.Provider {
	case config.ProviderWebhook, "":
		return NewWebhookEvaluator(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout()}), nil
	case config.ProviderVertexAI:
		return NewVertexAIEvaluator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown evaluator provider %q", cfg.Provider)
	}
}

// payload flattens the request into the body the workflow expects: every
// candidate field except id, plus status, job and managerComment.
func payload(req models.EvaluationRequest) (map[string]json.RawMessage, error) {
	body := make(map[string]json.RawMessage, len(req.Candidate)+3)
	for k, v := range req.Candidate {
		if k == "id" {
			continue
		}
		body[k] = v
	}

	set := func(key string, v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		body[key] = data
		return nil
	}
	if err := set("status", req.Status); err != nil {
		return nil, err
	}
	if err := set("job", req.Job); err != nil {
		return nil, err
	}
	if err := set("managerComment", req.ManagerComment); err != nil {
		return nil, err
	}
	return body, nil
}
