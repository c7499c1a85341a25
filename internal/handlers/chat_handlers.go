package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/llm"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/services"
	"ownchat-backend/internal/store"
	"ownchat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatService defines the interface expected from the chat service.
type ChatService interface {
	ListChats(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	CreateChat(ctx context.Context, userID uuid.UUID, req models.CreateChatRequest) (*models.Chat, error)
	GetChat(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, []models.Message, error)
	UpdateChat(ctx context.Context, chatID, userID uuid.UUID, req models.UpdateChatRequest) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error
	SearchChats(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error)
	SendMessage(ctx context.Context, chatID, userID uuid.UUID, content string) (*services.SendMessageResult, error)
	RegenerateTitle(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error)
}

type ChatHandlers struct {
	chatService ChatService
}

func NewChatHandlers(chatSvc ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatSvc,
	}
}

// requestIdentity pulls the authenticated user and, for routes with a chat
// path parameter, the chat ID. A nil chatID requirement is signalled by
// passing false.
func (h *ChatHandlers) requestIdentity(w http.ResponseWriter, r *http.Request, wantChatID bool) (userID, chatID uuid.UUID, ok bool) {
	userID, found := auth.GetUserIDFromContext(r.Context())
	if !found {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	if !wantChatID {
		return userID, uuid.Nil, true
	}

	// A path segment that is not a UUID can't name an existing chat, so it
	// gets the same 404 an unknown ID would.
	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, chatID, true
}

// HandleListChats handles the GET /api/chats request.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.requestIdentity(w, r, false)
	if !ok {
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		log.Printf("List chats handler failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toListChatsResponse(chats))
}

// HandleCreateChat handles the POST /api/chats request.
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.requestIdentity(w, r, false)
	if !ok {
		return
	}

	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	chat, err := h.chatService.CreateChat(r.Context(), userID, req)
	if err != nil {
		log.Printf("Create chat handler failed for user %s: %v", userID, err)
		switch {
		case errors.Is(err, services.ErrInvalidModel):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to create chat")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.NewChatResponse(chat))
}

// HandleGetChat handles the GET /api/chats/{chatID} request.
func (h *ChatHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.requestIdentity(w, r, true)
	if !ok {
		return
	}

	chat, messages, err := h.chatService.GetChat(r.Context(), chatID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			log.Printf("Get chat handler failed for chat %s: %v", chatID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to load chat")
		}
		return
	}

	resp := models.ChatDetailResponse{
		Chat:     models.NewChatResponse(chat),
		Messages: make([]models.MessageResponse, 0, len(messages)),
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, models.NewMessageResponse(&messages[i]))
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpdateChat handles the PUT /api/chats/{chatID} request.
func (h *ChatHandlers) HandleUpdateChat(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.requestIdentity(w, r, true)
	if !ok {
		return
	}

	var req models.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	chat, err := h.chatService.UpdateChat(r.Context(), chatID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			log.Printf("Update chat handler failed for chat %s: %v", chatID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to update chat")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.NewChatResponse(chat))
}

// HandleDeleteChat handles the DELETE /api/chats/{chatID} request.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.requestIdentity(w, r, true)
	if !ok {
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), chatID, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			log.Printf("Delete chat handler failed for chat %s: %v", chatID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete chat")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageOnly{Message: "Chat deleted"})
}

// HandleSearchChats handles the GET /api/chats/search?q= request.
func (h *ChatHandlers) HandleSearchChats(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.requestIdentity(w, r, false)
	if !ok {
		return
	}

	chats, err := h.chatService.SearchChats(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Search chats handler failed for user %s: %v", userID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to search chats")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toListChatsResponse(chats))
}

// HandleSendMessage handles the POST /api/chats/{chatID}/messages request.
func (h *ChatHandlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.requestIdentity(w, r, true)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	result, err := h.chatService.SendMessage(r.Context(), chatID, userID, req.Content)
	if err != nil {
		log.Printf("Send message handler failed for chat %s: %v", chatID, err)
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		case errors.Is(err, services.ErrEmptyMessage):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrMessageLimit):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case llm.IsAuthError(err):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to generate a response")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.SendMessageResponse{
		UserMessage: models.NewMessageResponse(result.UserMessage),
		AIMessage:   models.NewMessageResponse(result.AIMessage),
		Chat:        models.NewChatResponse(result.Chat),
	})
}

// HandleRegenerateTitle handles the POST /api/chats/{chatID}/regenerate-title request.
func (h *ChatHandlers) HandleRegenerateTitle(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.requestIdentity(w, r, true)
	if !ok {
		return
	}

	chat, err := h.chatService.RegenerateTitle(r.Context(), chatID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			log.Printf("Regenerate title handler failed for chat %s: %v", chatID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to regenerate title")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.NewChatResponse(chat))
}

func toListChatsResponse(chats []models.Chat) models.ListChatsResponse {
	resp := models.ListChatsResponse{Chats: make([]models.ChatResponse, 0, len(chats))}
	for i := range chats {
		resp.Chats = append(resp.Chats, models.NewChatResponse(&chats[i]))
	}
	return resp
}
