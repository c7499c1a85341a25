package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	titleSystemPrompt = "You are a helpful assistant that generates concise titles for chat conversations. " +
		"The title must be at most 6 words, with no quotation marks. Just return the title itself, nothing else."

	titleMaxTokens     = 20
	titleTemperature   = 0.3
	titleMaxLen        = 60
	titleMessageMaxLen = 500
	titleFallbackLen   = 50

	// Fast, low-cost variants used for titles regardless of the chat's
	// specific model within a provider family.
	openAITitleModel    = "gpt-3.5-turbo"
	anthropicTitleModel = "claude-3-haiku-20240307"
)

// Summarizer derives short chat titles from conversation history via the
// gateway, with a deterministic fallback so it never fails the caller.
type Summarizer struct {
	gateway Gateway
}

func NewSummarizer(gateway Gateway) *Summarizer {
	return &Summarizer{gateway: gateway}
}

// GenerateTitle returns a title for the conversation. An empty history yields
// "New Chat". On any gateway failure the first user message, truncated, is
// used instead; the result is never an error.
func (s *Summarizer) GenerateTitle(ctx context.Context, chatModel string, history []Message) string {
	if len(history) == 0 {
		return "New Chat"
	}

	title, err := s.Summarize(ctx, chatModel, history)
	if err != nil {
		return FallbackTitle(history)
	}
	return title
}

// Summarize asks the provider family's fast model for a title and returns
// the post-processed result. Unlike GenerateTitle it surfaces failures, so
// callers can choose their own fallback text.
func (s *Summarizer) Summarize(ctx context.Context, chatModel string, history []Message) (string, error) {
	titleModel, err := titleModelFor(chatModel)
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	prompt.WriteString("Generate a title of at most 6 words for this conversation. Do not use quotation marks.\n\n")
	for _, m := range history {
		label := "Human"
		if m.Role == "assistant" {
			label = "Assistant"
		}
		prompt.WriteString(label)
		prompt.WriteString(": ")
		prompt.WriteString(Truncate(m.Content, titleMessageMaxLen))
		prompt.WriteString("\n")
	}

	raw, err := s.gateway.Complete(ctx, CompletionRequest{
		Model:       titleModel,
		System:      titleSystemPrompt,
		Messages:    []Message{{Role: "user", Content: prompt.String()}},
		MaxTokens:   titleMaxTokens,
		Temperature: titleTemperature,
	})
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > titleMaxLen {
		title = string(runes[:titleMaxLen])
	}
	if title == "" {
		return "", fmt.Errorf("empty title from provider")
	}
	return title, nil
}

// titleModelFor maps a chat's model to the fast title model of the same
// provider family.
func titleModelFor(chatModel string) (string, error) {
	switch {
	case strings.HasPrefix(chatModel, "gpt-"):
		return openAITitleModel, nil
	case strings.HasPrefix(chatModel, "claude-"):
		return anthropicTitleModel, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, chatModel)
	}
}

// FallbackTitle derives a title from the first user message, or "New Chat"
// when there is none.
func FallbackTitle(history []Message) string {
	for _, m := range history {
		if m.Role == "user" {
			return Truncate(m.Content, titleFallbackLen)
		}
	}
	return "New Chat"
}

// Truncate cuts s at max characters and appends an ellipsis when anything was
// cut. Counting runes rather than bytes keeps multibyte text valid UTF-8.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
