package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/vertexai/genai"

	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/models"
)

const defaultInstruction = "You are an experienced hiring manager reviewing an interview. " +
	"Assess the candidate against the role using the interview notes and the reviewer's decision."

// generator is the text-in/text-out slice of a generative model
type generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// VertexAIEvaluator evaluates candidates with a Gemini model on Vertex AI
// instead of an external workflow
type VertexAIEvaluator struct {
	gen    generator
	closer func() error
}

// NewVertexAIEvaluator creates a Gemini-backed evaluator
func NewVertexAIEvaluator(ctx context.Context, cfg config.EvaluatorConfig) (*VertexAIEvaluator, error) {
	if cfg.GoogleCloudProject == "" {
		return nil, fmt.Errorf("google cloud project is required for the vertexai evaluator")
	}
	location := cfg.GoogleCloudLocation
	if location == "" {
		location = "us-central1"
	}

	client, err := genai.NewClient(ctx, cfg.GoogleCloudProject, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.2)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(2048)
	model.ResponseMIMEType = "application/json"

	return &VertexAIEvaluator{
		gen:    &geminiGenerator{model: model},
		closer: client.Close,
	}, nil
}

// Evaluate prompts the model and decodes the JSON object in its answer
func (e *VertexAIEvaluator) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.Value, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, err)
	}

	response, err := e.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err))
	}

	result, err := parseEvaluation(response)
	if err != nil {
		return nil, models.WrapOp("evaluate candidate", req.FileID, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err))
	}
	return result, nil
}

// Close releases the Vertex AI client
func (e *VertexAIEvaluator) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

// buildPrompt renders the job instruction, the decision and the candidate fields
func buildPrompt(req models.EvaluationRequest) (string, error) {
	var sb strings.Builder

	instruction := defaultInstruction
	if req.Job != nil && strings.TrimSpace(req.Job.Prompt) != "" {
		instruction = req.Job.Prompt
	}
	sb.WriteString(instruction)
	sb.WriteString("\n\n")

	if req.Job != nil {
		sb.WriteString("## ROLE\n")
		sb.WriteString(fmt.Sprintf("Name: %s\n\n", req.Job.Name))
	}

	sb.WriteString("## REVIEWER DECISION\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", req.Status))
	if req.ManagerComment != "" {
		sb.WriteString(fmt.Sprintf("Manager comment: %s\n", req.ManagerComment))
	}
	sb.WriteString("\n## CANDIDATE\n")

	keys := make([]string, 0, len(req.Candidate))
	for k := range req.Candidate {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := models.ParseValue(req.Candidate[k])
		if err != nil {
			return "", fmt.Errorf("failed to decode candidate field %s: %w", k, err)
		}
		if v == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n%s\n\n", k, sanitizeUTF8(v.String())))
	}

	sb.WriteString("## OUTPUT\n")
	sb.WriteString("Return ONLY a JSON object with the keys \"summary\", \"strengths\", \"concerns\" and \"recommendation\".\n")
	return sb.String(), nil
}

// parseEvaluation extracts the outermost JSON object from a model response
func parseEvaluation(response string) (*models.Value, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON found in response")
	}

	jsonStr := response[startIdx : endIdx+1]
	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("invalid JSON in response")
	}
	return models.ParseValue([]byte(jsonStr))
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}
	return result.String(), nil
}
