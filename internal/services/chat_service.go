package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ownchat-backend/internal/llm"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/store"

	"github.com/google/uuid"
)

// Service-specific errors for chat operations.
var (
	ErrInvalidModel    = errors.New("invalid model")
	ErrMessageLimit    = errors.New("message limit reached for this chat")
	ErrEmptyMessage    = errors.New("message content cannot be empty")
	ErrGeneratingReply = errors.New("failed to generate reply")
)

// ChatService handles chat and message business logic.
type ChatService struct {
	store       store.Store
	gateway     llm.Gateway
	summarizer  *llm.Summarizer
	maxMessages int64
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, gateway llm.Gateway, summarizer *llm.Summarizer, maxMessages int64) *ChatService {
	return &ChatService{
		store:       s,
		gateway:     gateway,
		summarizer:  summarizer,
		maxMessages: maxMessages,
	}
}

// SendMessageResult carries both halves of a completed exchange plus the
// chat's post-exchange state (title and count may have changed).
type SendMessageResult struct {
	UserMessage *models.Message
	AIMessage   *models.Message
	Chat        *models.Chat
}

// ListChats returns the user's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	return s.store.ListChatsByUser(ctx, userID)
}

// CreateChat creates a new chat for the user. The model must be on the
// allow-list; the title defaults when absent or blank.
func (s *ChatService) CreateChat(ctx context.Context, userID uuid.UUID, req models.CreateChatRequest) (*models.Chat, error) {
	model := strings.TrimSpace(req.Model)
	if !models.IsValidModel(model) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, model)
	}

	title := models.DefaultChatTitle
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}

	chat, err := s.store.CreateChat(ctx, store.CreateChatParams{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Model:  model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// GetChat returns a chat and its full message history in creation order.
// Returns store.ErrNotFound when the chat does not exist or belongs to
// another user.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, []models.Message, error) {
	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.ListMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return chat, messages, nil
}

// UpdateChat applies partial updates to a chat's title and model. A blank
// title is ignored. An unrecognized model is ignored rather than rejected so
// that a title-only update from a stale client still lands; the skip is
// logged.
func (s *ChatService) UpdateChat(ctx context.Context, chatID, userID uuid.UUID, req models.UpdateChatRequest) (*models.Chat, error) {
	params := store.UpdateChatParams{ID: chatID, UserID: userID}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != "" {
			params.Title = &title
		}
	}
	if req.Model != nil {
		model := strings.TrimSpace(*req.Model)
		if models.IsValidModel(model) {
			params.Model = &model
		} else {
			log.Printf("WARN: ignoring invalid model %q in chat update %s", model, chatID)
		}
	}

	chat, err := s.store.UpdateChat(ctx, params)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// DeleteChat removes a chat and, via cascade, its messages.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error {
	return s.store.DeleteChat(ctx, chatID, userID)
}

// SearchChats returns the user's chats whose title or message content
// matches the query, case-insensitively.
func (s *ChatService) SearchChats(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	return s.store.SearchChatsByUser(ctx, userID, query)
}

// SendMessage records the user's message, generates the assistant's reply,
// and records that too. Both inserts happen in one transaction: a provider
// failure rolls back the user message, so a chat never ends on an
// unanswered turn. The chat title is refreshed on the first exchange and
// every fourth one after that.
func (s *ChatService) SendMessage(ctx context.Context, chatID, userID uuid.UUID, content string) (*SendMessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	var result SendMessageResult
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		count, err := tx.CountMessagesByChat(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to count messages: %w", err)
		}
		if count >= s.maxMessages {
			return ErrMessageLimit
		}

		history, err := tx.ListMessagesByChat(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		userMsg := &models.Message{
			ID:        uuid.New(),
			ChatID:    chatID,
			Role:      models.RoleUser,
			Content:   content,
			CreatedAt: time.Now(),
		}
		if err := tx.CreateMessage(ctx, userMsg); err != nil {
			return fmt.Errorf("failed to save user message: %w", err)
		}

		reply, err := llm.GenerateReply(ctx, s.gateway, chat.Model, toLLMHistory(history), content)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGeneratingReply, err)
		}

		aiMsg := &models.Message{
			ID:        uuid.New(),
			ChatID:    chatID,
			Role:      models.RoleAssistant,
			Content:   reply,
			CreatedAt: time.Now(),
		}
		if err := tx.CreateMessage(ctx, aiMsg); err != nil {
			return fmt.Errorf("failed to save assistant message: %w", err)
		}

		if shouldRefreshTitle(count) {
			titleHistory := append(toLLMHistory(history),
				llm.Message{Role: models.RoleUser, Content: content},
				llm.Message{Role: models.RoleAssistant, Content: reply},
			)
			title, err := s.summarizer.Summarize(ctx, chat.Model, titleHistory)
			if err != nil {
				log.Printf("WARN: title generation failed for chat %s: %v", chatID, err)
				title = llm.Truncate(content, 50)
			}
			if err := tx.UpdateChatTitle(ctx, chatID, userID, title); err != nil {
				return fmt.Errorf("failed to update chat title: %w", err)
			}
		} else {
			if err := tx.TouchChat(ctx, chatID, userID); err != nil {
				return fmt.Errorf("failed to touch chat: %w", err)
			}
		}

		updated, err := tx.GetChatByID(ctx, chatID, userID)
		if err != nil {
			return fmt.Errorf("failed to reload chat: %w", err)
		}

		result = SendMessageResult{UserMessage: userMsg, AIMessage: aiMsg, Chat: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RegenerateTitle re-summarizes the chat's history on demand. Unlike the
// send path it never fails on a provider error; the fallback title is used
// instead.
func (s *ChatService) RegenerateTitle(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	title := s.summarizer.GenerateTitle(ctx, chat.Model, toLLMHistory(history))
	if err := s.store.UpdateChatTitle(ctx, chatID, userID, title); err != nil {
		return nil, fmt.Errorf("failed to update chat title: %w", err)
	}

	chat.Title = title
	return chat, nil
}

// shouldRefreshTitle reports whether the exchange starting from the given
// pre-exchange message count should refresh the chat title: the first
// exchange, then every fourth exchange after it.
func shouldRefreshTitle(countBefore int64) bool {
	return countBefore == 0 || countBefore%4 == 1
}

func toLLMHistory(messages []models.Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}
