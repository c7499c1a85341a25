package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/llm"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/services"
	"ownchat-backend/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type fakeChatService struct {
	listFn       func(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	createFn     func(ctx context.Context, userID uuid.UUID, req models.CreateChatRequest) (*models.Chat, error)
	getFn        func(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, []models.Message, error)
	updateFn     func(ctx context.Context, chatID, userID uuid.UUID, req models.UpdateChatRequest) (*models.Chat, error)
	deleteFn     func(ctx context.Context, chatID, userID uuid.UUID) error
	searchFn     func(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error)
	sendFn       func(ctx context.Context, chatID, userID uuid.UUID, content string) (*services.SendMessageResult, error)
	regenerateFn func(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error)
}

func (f *fakeChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	return f.listFn(ctx, userID)
}

func (f *fakeChatService) CreateChat(ctx context.Context, userID uuid.UUID, req models.CreateChatRequest) (*models.Chat, error) {
	return f.createFn(ctx, userID, req)
}

func (f *fakeChatService) GetChat(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, []models.Message, error) {
	return f.getFn(ctx, chatID, userID)
}

func (f *fakeChatService) UpdateChat(ctx context.Context, chatID, userID uuid.UUID, req models.UpdateChatRequest) (*models.Chat, error) {
	return f.updateFn(ctx, chatID, userID, req)
}

func (f *fakeChatService) DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error {
	return f.deleteFn(ctx, chatID, userID)
}

func (f *fakeChatService) SearchChats(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error) {
	return f.searchFn(ctx, userID, query)
}

func (f *fakeChatService) SendMessage(ctx context.Context, chatID, userID uuid.UUID, content string) (*services.SendMessageResult, error) {
	return f.sendFn(ctx, chatID, userID, content)
}

func (f *fakeChatService) RegenerateTitle(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	return f.regenerateFn(ctx, chatID, userID)
}

// chatTestRouter mounts the chat routes with a fixed authenticated user, so
// chi's URL params resolve the same way they do in production.
func chatTestRouter(svc ChatService, userID uuid.UUID) http.Handler {
	h := NewChatHandlers(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
			ctx = context.WithValue(ctx, auth.SessionIDKey, uuid.New())
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/chats", h.HandleListChats)
	r.Post("/chats", h.HandleCreateChat)
	r.Get("/chats/search", h.HandleSearchChats)
	r.Get("/chats/{chatID}", h.HandleGetChat)
	r.Put("/chats/{chatID}", h.HandleUpdateChat)
	r.Delete("/chats/{chatID}", h.HandleDeleteChat)
	r.Post("/chats/{chatID}/messages", h.HandleSendMessage)
	r.Post("/chats/{chatID}/regenerate-title", h.HandleRegenerateTitle)
	return r
}

func testChat(userID uuid.UUID) *models.Chat {
	return &models.Chat{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "New Chat",
		Model:  "gpt-4",
	}
}

func TestHandleCreateChat(t *testing.T) {
	userID := uuid.New()
	svc := &fakeChatService{
		createFn: func(ctx context.Context, uid uuid.UUID, req models.CreateChatRequest) (*models.Chat, error) {
			if !models.IsValidModel(req.Model) {
				return nil, services.ErrInvalidModel
			}
			return testChat(uid), nil
		},
	}
	router := chatTestRouter(svc, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/chats", strings.NewReader(`{"model":"gpt-4"}`)))
	if rec.Code != http.StatusCreated {
		t.Errorf("valid model: expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/chats", strings.NewReader(`{"model":"llama-3"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid model: expected 400, got %d", rec.Code)
	}
}

func TestHandleGetChatNotFound(t *testing.T) {
	userID := uuid.New()
	svc := &fakeChatService{
		getFn: func(ctx context.Context, chatID, uid uuid.UUID) (*models.Chat, []models.Message, error) {
			return nil, nil, store.ErrNotFound
		},
	}
	router := chatTestRouter(svc, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/chats/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetChatMalformedID(t *testing.T) {
	router := chatTestRouter(&fakeChatService{}, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/chats/not-a-uuid", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed chat ID, got %d", rec.Code)
	}
}

func TestHandleSendMessageStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"empty content", services.ErrEmptyMessage, http.StatusBadRequest},
		{"limit reached", services.ErrMessageLimit, http.StatusBadRequest},
		{"key not configured", fmt.Errorf("%w: %w", services.ErrGeneratingReply, llm.ErrNotConfigured), http.StatusUnauthorized},
		{"invalid key", fmt.Errorf("%w: OpenAI returned 401: invalid api key", services.ErrGeneratingReply), http.StatusUnauthorized},
		{"provider failure", errors.New("OpenAI returned 500: upstream error"), http.StatusInternalServerError},
	}

	userID := uuid.New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeChatService{
				sendFn: func(ctx context.Context, chatID, uid uuid.UUID, content string) (*services.SendMessageResult, error) {
					return nil, tc.err
				},
			}
			router := chatTestRouter(svc, userID)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("POST", "/chats/"+uuid.NewString()+"/messages",
				strings.NewReader(`{"content":"hello"}`)))
			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSendMessageSuccess(t *testing.T) {
	userID := uuid.New()
	chat := testChat(userID)
	chat.Title = "Friendly Greeting"
	chat.MessageCount = 2

	svc := &fakeChatService{
		sendFn: func(ctx context.Context, chatID, uid uuid.UUID, content string) (*services.SendMessageResult, error) {
			return &services.SendMessageResult{
				UserMessage: &models.Message{ID: uuid.New(), ChatID: chat.ID, Role: models.RoleUser, Content: content},
				AIMessage:   &models.Message{ID: uuid.New(), ChatID: chat.ID, Role: models.RoleAssistant, Content: "Hi!"},
				Chat:        chat,
			}, nil
		},
	}
	router := chatTestRouter(svc, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/chats/"+chat.ID.String()+"/messages",
		strings.NewReader(`{"content":"hello"}`)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.SendMessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserMessage.Content != "hello" || resp.AIMessage.Content != "Hi!" {
		t.Errorf("unexpected message pair: %+v", resp)
	}
	if resp.Chat.Title != "Friendly Greeting" {
		t.Errorf("expected updated chat in response, got %+v", resp.Chat)
	}
}

func TestHandleSearchChats(t *testing.T) {
	userID := uuid.New()
	svc := &fakeChatService{
		searchFn: func(ctx context.Context, uid uuid.UUID, query string) ([]models.Chat, error) {
			if strings.TrimSpace(query) == "" {
				return nil, services.ErrValidation
			}
			return []models.Chat{*testChat(uid)}, nil
		},
	}
	router := chatTestRouter(svc, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/chats/search?q=trip", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp models.ListChatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Chats) != 1 {
		t.Errorf("expected 1 chat, got %d", len(resp.Chats))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/chats/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank query: expected 400, got %d", rec.Code)
	}
}

func TestHandleDeleteChat(t *testing.T) {
	userID := uuid.New()
	svc := &fakeChatService{
		deleteFn: func(ctx context.Context, chatID, uid uuid.UUID) error {
			return store.ErrNotFound
		},
	}
	router := chatTestRouter(svc, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/chats/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
