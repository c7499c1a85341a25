package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// RegisterRequest defines the expected body for the register endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the ID token posted by the Google sign-in widget.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// UpdateProfileRequest defines the body for profile updates. Both fields are
// optional; absent fields are left unchanged.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// CreateChatRequest defines the body for creating a chat.
type CreateChatRequest struct {
	Model string  `json:"model"`
	Title *string `json:"title,omitempty"`
}

// UpdateChatRequest defines the body for updating a chat. Both fields are
// optional; an invalid model is silently ignored (unlike creation).
type UpdateChatRequest struct {
	Title *string `json:"title,omitempty"`
	Model *string `json:"model,omitempty"`
}

// SendMessageRequest defines the body for posting a message to a chat.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Never includes the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse defines the response body for successful authentication.
// RedirectURL is a client-side navigation hint.
type AuthResponse struct {
	Message     string       `json:"message"`
	User        UserResponse `json:"user"`
	RedirectURL string       `json:"redirect_url"`
}

// ProfileResponse wraps the user DTO for profile reads and updates.
type ProfileResponse struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

// ChatResponse defines the chat information returned by the API.
type ChatResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageResponse defines a single message as returned by the API.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ListChatsResponse wraps a list of chats.
type ListChatsResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// ChatDetailResponse is returned when fetching a single chat.
type ChatDetailResponse struct {
	Chat     ChatResponse      `json:"chat"`
	Messages []MessageResponse `json:"messages"`
}

// SendMessageResponse is returned after a successful message exchange.
type SendMessageResponse struct {
	UserMessage MessageResponse `json:"user_message"`
	AIMessage   MessageResponse `json:"ai_message"`
	Chat        ChatResponse    `json:"chat"`
}

// MessageOnly is a bare confirmation body.
type MessageOnly struct {
	Message string `json:"message"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewUserResponse maps a DB user to its API DTO.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewChatResponse maps a DB chat to its API DTO.
func NewChatResponse(c *Chat) ChatResponse {
	return ChatResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		Title:        c.Title,
		Model:        c.Model,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// NewMessageResponse maps a DB message to its API DTO.
func NewMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}
}
