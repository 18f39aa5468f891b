// Package recommender asks a language model for personalized savings advice
// based on a categorized statement.
package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/retry"
	"fjacquet/statement-insights/internal/textutils"

	"github.com/gocarina/gocsv"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Recommender produces recommendations for a set of transactions.
type Recommender interface {
	Recommend(ctx context.Context, txs []models.Transaction) (*models.Recommendations, error)
}

// Generator sends a prompt to a language model and returns its text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const advisorPrompt = `You are a financial advisor analyzing transaction data to provide personalized recommendations.
Focus on:
1. Identifying spending patterns and potential areas for optimization
2. Suggesting specific, actionable steps to improve financial health
3. Providing realistic estimates of potential savings

For each difficulty level (easy, moderate, significant):
- Provide exactly 3 recommendations
- Each recommendation should include a clear title, a detailed description,
  the estimated monthly and yearly impact, specific implementation steps and
  relevant resources or links

Return only JSON in this format, without Markdown:
{
  "recommendations": {
    "easy": [{
      "id": string,
      "title": string,
      "description": string,
      "impact": { "monthly": number, "yearly": number },
      "steps": string[],
      "links": [{ "title": string, "url": string }]
    }],
    "moderate": [...],
    "significant": [...]
  },
  "wealthForecasts": {
    "withRecommendations": {
      "easy": [{ "years": number, "amount": number }],
      "moderate": [...],
      "significant": [...]
    }
  }
}`

// Advisor implements Recommender on top of a Generator.
type Advisor struct {
	gen    Generator
	policy retry.Policy
	logger logging.Logger
}

// NewAdvisor creates an Advisor.
func NewAdvisor(gen Generator, policy retry.Policy, logger logging.Logger) *Advisor {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Advisor{gen: gen, policy: policy, logger: logger}
}

// Close releases the underlying generator when it holds resources.
func (a *Advisor) Close() error {
	if c, ok := a.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Recommend sends the transactions as CSV and decodes the model's JSON answer.
func (a *Advisor) Recommend(ctx context.Context, txs []models.Transaction) (*models.Recommendations, error) {
	if len(txs) == 0 {
		return nil, &parsererror.PreconditionError{Reason: "no transactions to analyze"}
	}

	prompt, err := BuildPrompt(txs)
	if err != nil {
		return nil, &parsererror.RecommendationError{Msg: "failed to encode transactions", Err: err}
	}

	var answer string
	attempt := 0
	err = a.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		out, err := a.gen.Generate(ctx, prompt)
		if err != nil {
			a.logger.WithError(err).Warn("Recommendation request failed", logging.F(logging.FieldAttempt, attempt))
			return err
		}
		answer = out
		return nil
	})
	if err != nil {
		return nil, &parsererror.RecommendationError{Msg: "model request failed", Err: err}
	}

	recs, err := ParseResponse(answer)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Received recommendations", logging.F(logging.FieldCount, recs.Recommendations.Count()))
	return recs, nil
}

// BuildPrompt renders the advisor instructions followed by the transactions as CSV.
func BuildPrompt(txs []models.Transaction) (string, error) {
	csvData, err := gocsv.MarshalString(models.ToRows(txs))
	if err != nil {
		return "", err
	}
	return advisorPrompt + "\n\nAnalyze these transactions and provide personalized recommendations:\n\n" + csvData, nil
}

// ParseResponse decodes a model answer, tolerating a Markdown code fence.
func ParseResponse(answer string) (*models.Recommendations, error) {
	body := textutils.StripCodeFences(answer)
	if body == "" {
		return nil, &parsererror.RecommendationError{Msg: "empty model response"}
	}

	var recs models.Recommendations
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		return nil, &parsererror.RecommendationError{Msg: "model response is not valid JSON", Err: err}
	}
	if recs.Recommendations.Count() == 0 {
		return nil, &parsererror.RecommendationError{Msg: "model response contains no recommendations"}
	}
	return &recs, nil
}

// Config configures the Gemini backed advisor.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Policy      retry.Policy
}

// GeminiGenerator calls a Gemini text model.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates the client. A missing API key is a configuration
// error reported before any request.
func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &parsererror.ConfigurationError{Component: "recommender", Msg: "GEMINI_API_KEY is not set"}
	}
	if cfg.Model == "" {
		return nil, &parsererror.ConfigurationError{Component: "recommender", Msg: "model name is empty"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, &parsererror.ConfigurationError{Component: "recommender", Msg: fmt.Sprintf("failed to create Gemini client: %v", err)}
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// NewGemini creates an Advisor backed by Gemini.
func NewGemini(ctx context.Context, cfg Config, logger logging.Logger) (*Advisor, error) {
	gen, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewAdvisor(gen, cfg.Policy, logger), nil
}
