// Package vision wraps the external vision-inference call that reads a
// usage screenshot into structured text.
package vision

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

// extractionPrompt is the fixed instruction template. The JSON shape here
// must match what stats.ParseExtraction consumes.
const extractionPrompt = `Extract the following statistics from this Cursor 2025 Wrapped screenshot. Return ONLY a JSON object with these exact keys:
{
  "tokens": "the token count (e.g., '6.60B', '1.2M', '500K')",
  "agents": "the agents count (e.g., '17K', '1.2K')",
  "tabs": "the tabs count (e.g., '4.3K', '500')",
  "streak": "the streak in days (e.g., '56d', '30 days')",
  "usage_percentile": "the usage percentile (e.g., 'Top 5%', 'Top 10%')",
  "top_models": ["model1", "model2", "model3"],
  "joined_days_ago": number
}

If any value is not visible, use null for that field. Be precise with the token count - it's the main metric.`

// maxResponseTokens bounds the completion; the expected JSON object is tiny.
const maxResponseTokens = 500

// Extractor turns a screenshot into the raw text of a single-turn
// inference response.
type Extractor interface {
	ExtractStats(ctx context.Context, image []byte, mimeType string) (string, error)
}

// GeminiExtractor calls the Gemini multimodal API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiExtractor{
		client: client,
		model:  model,
	}, nil
}

// ExtractStats sends the screenshot with the instruction template and
// returns the raw completion text.
func (e *GeminiExtractor) ExtractStats(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: maxResponseTokens,
	})
	if err != nil {
		return "", apperrors.New(apperrors.CodeExtractionUnavailable,
			"Failed to extract stats from image", err)
	}

	text := result.Text()
	if text == "" {
		return "", apperrors.New(apperrors.CodeExtractionUnavailable,
			"Failed to extract stats from image", nil)
	}

	return text, nil
}
