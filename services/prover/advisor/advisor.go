// Package advisor suggests lemmas for a proof goal through an
// OpenAI-compatible chat endpoint. The advisor is an optional hint
// surface: when no API key is configured the service runs without it,
// and nothing in the index or search path depends on its answers.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Suggestion is one ranked lemma hint.
type Suggestion struct {
	// Name is the lemma the model proposed, restricted to names it was
	// shown.
	Name string `json:"name"`
	// Rationale is the model's one-line justification.
	Rationale string `json:"rationale,omitempty"`
}

// Advisor ranks candidate lemmas for a goal.
type Advisor struct {
	client *openai.Client
	model  string
}

// New builds an advisor from the environment. The API key comes from
// OPENAI_API_KEY or the Podman secret file; the model from
// OPENAI_MODEL.
func New() (*Advisor, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing lemma advisor", "model", model)
	return &Advisor{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// NewWithClient builds an advisor around an existing client. Used by
// tests and by callers pointing at a compatible local endpoint.
func NewWithClient(client *openai.Client, model string) *Advisor {
	return &Advisor{client: client, model: model}
}

// Suggest asks the model which of the known lemmas apply to the goal.
// lemmas is the candidate pool, typically the names under the goal's
// conclusion head plus its neighbors. The reply is filtered back
// against the pool, so the model cannot invent lemma names.
func (a *Advisor) Suggest(ctx context.Context, goalText string, lemmas []string) ([]Suggestion, error) {
	if len(lemmas) == 0 {
		return nil, nil
	}

	slog.Debug("Requesting lemma suggestions", "model", a.model, "candidates", len(lemmas))
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(goalText, lemmas)},
		},
		Temperature: 0.1,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("Advisor API call failed", "error", err)
		return nil, fmt.Errorf("advisor API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("Advisor returned no choices")
		return nil, fmt.Errorf("advisor returned no choices")
	}

	suggestions := parseSuggestions(resp.Choices[0].Message.Content, lemmas)
	slog.Debug("Received lemma suggestions", "count", len(suggestions))
	return suggestions, nil
}
