// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

const DefaultModel = "gemini-2.0-flash"

// tutorSystemPrompt frames the assistant as a beginner-friendly finance tutor.
// The same persona the backend uses, so fallback answers read consistently.
const tutorSystemPrompt = `You are Finley, a friendly financial-literacy tutor inside a paper-trading app.
Explain concepts simply, assume the user is a beginner, and never give
personalized investment advice. Keep answers under 200 words.`

// Client implements the GeminiClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates AI content from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// Chat continues a tutor conversation. History is flattened into the prompt;
// conversations are short enough that a transcript beats session plumbing.
func (c *Client) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	var sb strings.Builder
	sb.WriteString(tutorSystemPrompt)
	sb.WriteString("\n\n")
	for _, m := range history {
		switch m.Role {
		case "assistant":
			sb.WriteString("Finley: ")
		default:
			sb.WriteString("Student: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("Student: ")
	sb.WriteString(message)
	sb.WriteString("\nFinley:")

	return c.GenerateContent(ctx, sb.String())
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements GeminiClient
var _ interfaces.GeminiClient = (*Client)(nil)
