package store

import (
	"context"
	"errors"

	"ownchat-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// CreateUserParams contains parameters for creating a user. Exactly one of
// HashedPassword / GoogleID may be nil, never both.
type CreateUserParams struct {
	ID             uuid.UUID
	Email          string
	HashedPassword *string
	Name           string
	GoogleID       *string
	AvatarURL      *string
}

// UpdateUserParams contains parameters for partial user updates. Nil fields
// are left unchanged.
type UpdateUserParams struct {
	ID        uuid.UUID
	Name      *string
	AvatarURL *string
	GoogleID  *string
}

// CreateChatParams contains parameters for creating a chat.
type CreateChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
	Model  string
}

// UpdateChatParams contains parameters for partial chat updates. Nil fields
// are left unchanged; updated_at is always bumped.
type UpdateChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  *string
	Model  *string
}

// Store defines the interface for database operations. This allows for
// mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateUser(ctx context.Context, arg UpdateUserParams) (*models.User, error)

	// Session operations
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Chat operations
	CreateChat(ctx context.Context, arg CreateChatParams) (*models.Chat, error)
	GetChatByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	SearchChatsByUser(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error)
	UpdateChat(ctx context.Context, arg UpdateChatParams) (*models.Chat, error)
	UpdateChatTitle(ctx context.Context, id uuid.UUID, userID uuid.UUID, title string) error
	TouchChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	DeleteChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// Message operations
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	CountMessagesByChat(ctx context.Context, chatID uuid.UUID) (int64, error)

	// WithTx runs fn against a transaction-scoped Store. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(Store) error) error
}
