package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Errors surfaced by the gateway. Handlers classify ErrNotConfigured (and
// invalid-key provider errors) as 401; everything else from a provider is a
// 500.
var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrNotConfigured    = errors.New("API key not configured")
)

const (
	requestTimeout = 30 * time.Second

	// Generation parameters for chat replies.
	replyMaxTokens   = 1000
	replyTemperature = 0.7

	chatSystemPrompt = "You are a helpful assistant. Format your responses in markdown. " +
		"Structure longer answers with sections and bullet points, and use emojis " +
		"where they make the response friendlier and easier to scan."
)

// Message is one turn of conversation history in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a single completion call. System is prepended
// as a system message (OpenAI) or passed as the system parameter (Anthropic).
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Gateway produces completions for a model identifier. Implementations must
// return ErrNotConfigured (wrapped) when their credential is absent rather
// than a placeholder string, so callers can classify the failure.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Dispatcher routes completion requests to a provider by model prefix:
// "gpt-" to OpenAI, "claude-" to Anthropic.
type Dispatcher struct {
	openai    *OpenAIClient
	anthropic *AnthropicClient
}

var _ Gateway = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over both providers. Empty keys are
// allowed; the corresponding provider then fails with ErrNotConfigured.
func NewDispatcher(openaiKey, anthropicKey string) *Dispatcher {
	httpClient := &http.Client{Timeout: requestTimeout}
	return &Dispatcher{
		openai:    NewOpenAIClient(openaiKey, httpClient),
		anthropic: NewAnthropicClient(anthropicKey, httpClient),
	}
}

// Complete dispatches to the provider owning the model's prefix.
func (d *Dispatcher) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	switch {
	case strings.HasPrefix(req.Model, "gpt-"):
		return d.openai.Complete(ctx, req)
	case strings.HasPrefix(req.Model, "claude-"):
		return d.anthropic.Complete(ctx, req)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, req.Model)
	}
}

// GenerateReply produces an assistant reply for a chat: the prior history in
// creation order plus the new user message, with the fixed style instruction.
func GenerateReply(ctx context.Context, gw Gateway, model string, history []Message, userMessage string) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	return gw.Complete(ctx, CompletionRequest{
		Model:       model,
		System:      chatSystemPrompt,
		Messages:    messages,
		MaxTokens:   replyMaxTokens,
		Temperature: replyTemperature,
	})
}

// IsAuthError reports whether a generation failure should map to 401 rather
// than 500: a missing credential, or a provider rejecting the key.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"key not configured", "invalid key", "invalid api key", "incorrect api key", "invalid x-api-key"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
