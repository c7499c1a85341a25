package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database. A user always has a password
// credential, a linked Google account, or both.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword *string   `db:"hashed_password"` // NULL for Google-only accounts
	Name           string    `db:"name"`
	GoogleID       *string   `db:"google_id"` // NULL unless a Google account is linked
	AvatarURL      *string   `db:"avatar_url"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Session represents a server-side login session. The session ID travels in a
// signed cookie; the row here is the authority for validity and expiry.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Chat represents a conversation thread owned by one user and bound to one
// model identifier.
type Chat struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Title        string    `db:"title"`
	Model        string    `db:"model"`
	MessageCount int64     // derived from the messages table, not a column
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Message represents one turn in a chat, tagged user or assistant.
// Messages are immutable after creation and are removed via chat deletion.
type Message struct {
	ID        uuid.UUID `db:"id"`
	ChatID    uuid.UUID `db:"chat_id"`
	Role      string    `db:"role"` // "user" or "assistant" (CHECK constraint)
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatTitle is assigned to chats created without a title and returned
// by the title summarizer for empty conversations.
const DefaultChatTitle = "New Chat"

// ValidModels is the fixed allow-list of model identifiers a chat can be
// bound to.
var ValidModels = []string{
	"gpt-4",
	"gpt-3.5-turbo",
	"claude-3-5-sonnet-20241022",
	"claude-3-opus-20240229",
	"claude-3-haiku-20240307",
}

// IsValidModel reports whether model is in the allow-list.
func IsValidModel(model string) bool {
	for _, m := range ValidModels {
		if m == model {
			return true
		}
	}
	return false
}
