// Package ocr turns scanned statements into plain text through an external
// vision model.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/retry"
	"fjacquet/statement-insights/internal/textutils"

	"google.golang.org/genai"
)

// ErrEmptyText is returned when the engine answers without any text.
var ErrEmptyText = errors.New("ocr engine returned no text")

// Engine recognizes the text of an image or PDF document.
type Engine interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Func adapts a plain function to the Engine interface.
type Func func(ctx context.Context, data []byte, mimeType string) (string, error)

// Recognize calls f.
func (f Func) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f(ctx, data, mimeType)
}

// GeminiConfig configures GeminiEngine.
type GeminiConfig struct {
	APIKey string
	Model  string
	Policy retry.Policy
}

const transcribePrompt = "Transcribe every line of text in the attached bank statement.\n" +
	"Keep one statement line per output line, in reading order.\n" +
	"Copy dates, amounts, signs and currency symbols exactly as printed.\n" +
	"Output plain text only. Do not summarize and do not use Markdown."

// GeminiEngine performs OCR with a Gemini multimodal model.
type GeminiEngine struct {
	client *genai.Client
	model  string
	policy retry.Policy
	logger logging.Logger
}

// NewGeminiEngine creates an engine. A missing API key is reported as a
// configuration error without contacting the service.
func NewGeminiEngine(ctx context.Context, cfg GeminiConfig, logger logging.Logger) (*GeminiEngine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &parsererror.ConfigurationError{Component: "ocr", Msg: "GEMINI_API_KEY is not set"}
	}
	if cfg.Model == "" {
		return nil, &parsererror.ConfigurationError{Component: "ocr", Msg: "model name is empty"}
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, &parsererror.ConfigurationError{Component: "ocr", Msg: fmt.Sprintf("failed to create genai client: %v", err)}
	}

	return &GeminiEngine{client: client, model: cfg.Model, policy: cfg.Policy, logger: logger}, nil
}

// Recognize sends the document inline and returns the transcribed text.
func (e *GeminiEngine) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			},
		},
	}

	var text string
	attempt := 0
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
		if err != nil {
			e.logger.WithError(err).Warn("OCR request failed",
				logging.F(logging.FieldModel, e.model),
				logging.F(logging.FieldAttempt, attempt))
			return err
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return "", &parsererror.OCRError{MIMEType: mimeType, Err: err}
	}

	text = textutils.StripCodeFences(text)
	if strings.TrimSpace(text) == "" {
		return "", &parsererror.OCRError{MIMEType: mimeType, Err: ErrEmptyText}
	}

	e.logger.Debug("OCR completed",
		logging.F(logging.FieldModel, e.model),
		logging.F(logging.FieldMIMEType, mimeType),
		logging.F(logging.FieldSize, len(text)))
	return text, nil
}
