package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	db_models "ownchat-backend/internal/models"
	"ownchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Chat rows are always selected alongside their message count so the API can
// report it without a second round trip.
const chatColumns = `c.id, c.user_id, c.title, c.model,
	(SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id) AS message_count,
	c.created_at, c.updated_at`

const createChat = `-- name: CreateChat :one
INSERT INTO chats (id, user_id, title, model)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, title, model, 0::bigint AS message_count, created_at, updated_at;
`

func (s *PostgresStore) CreateChat(ctx context.Context, arg store.CreateChatParams) (*db_models.Chat, error) {
	row := s.db.QueryRow(ctx, createChat,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.Model,
	)

	chat, err := scanChat(row)
	if err != nil {
		return nil, fmt.Errorf("database error creating chat: %w", err)
	}
	return chat, nil
}

var getChatByID = fmt.Sprintf(`-- name: GetChatByID :one
SELECT %s
FROM chats c
WHERE c.id = $1 AND c.user_id = $2;
`, chatColumns)

// GetChatByID retrieves a chat scoped to its owner. Returns store.ErrNotFound
// both when the chat is absent and when it belongs to another user.
func (s *PostgresStore) GetChatByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Chat, error) {
	chat, err := scanChat(s.db.QueryRow(ctx, getChatByID, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}
	return chat, nil
}

var listChatsByUser = fmt.Sprintf(`-- name: ListChatsByUser :many
SELECT %s
FROM chats c
WHERE c.user_id = $1
ORDER BY c.updated_at DESC;
`, chatColumns)

func (s *PostgresStore) ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Chat, error) {
	rows, err := s.db.Query(ctx, listChatsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	return collectChats(rows)
}

var searchChatsByUser = fmt.Sprintf(`-- name: SearchChatsByUser :many
SELECT %s
FROM chats c
WHERE c.user_id = $1
  AND (c.title ILIKE $2
       OR c.id IN (SELECT m.chat_id FROM messages m WHERE m.content ILIKE $2))
ORDER BY c.updated_at DESC;
`, chatColumns)

// SearchChatsByUser matches the query case-insensitively against chat titles
// and message contents.
func (s *PostgresStore) SearchChatsByUser(ctx context.Context, userID uuid.UUID, query string) ([]db_models.Chat, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.Query(ctx, searchChatsByUser, userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("error searching chats: %w", err)
	}
	defer rows.Close()

	return collectChats(rows)
}

// UpdateChat builds the query dynamically based on which fields are provided.
// updated_at is always bumped.
func (s *PostgresStore) UpdateChat(ctx context.Context, arg store.UpdateChatParams) (*db_models.Chat, error) {
	setClauses := []string{}
	args := []interface{}{}
	argID := 1

	if arg.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *arg.Title)
		argID++
	}
	if arg.Model != nil {
		setClauses = append(setClauses, fmt.Sprintf("model = $%d", argID))
		args = append(args, *arg.Model)
		argID++
	}

	if len(setClauses) == 0 {
		return s.GetChatByID(ctx, arg.ID, arg.UserID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	args = append(args, arg.ID)
	args = append(args, arg.UserID)

	query := fmt.Sprintf(`-- name: UpdateChat :one
		UPDATE chats c
		SET %s
		WHERE c.id = $%d AND c.user_id = $%d
		RETURNING %s;`,
		strings.Join(setClauses, ", "),
		argID,
		argID+1,
		chatColumns,
	)

	chat, err := scanChat(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning updated chat: %w", err)
	}
	return chat, nil
}

const updateChatTitle = `-- name: UpdateChatTitle :exec
UPDATE chats
SET title = $1, updated_at = NOW()
WHERE id = $2 AND user_id = $3;
`

func (s *PostgresStore) UpdateChatTitle(ctx context.Context, id uuid.UUID, userID uuid.UUID, title string) error {
	tag, err := s.db.Exec(ctx, updateChatTitle, title, id, userID)
	if err != nil {
		return fmt.Errorf("error updating chat title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const touchChat = `-- name: TouchChat :exec
UPDATE chats
SET updated_at = NOW()
WHERE id = $1 AND user_id = $2;
`

// TouchChat bumps updated_at so recently active chats sort first.
func (s *PostgresStore) TouchChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, touchChat, id, userID)
	if err != nil {
		return fmt.Errorf("error touching chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const deleteChat = `-- name: DeleteChat :exec
DELETE FROM chats
WHERE id = $1 AND user_id = $2;
`

// DeleteChat removes a chat; its messages go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteChat(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, deleteChat, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanChat(row pgx.Row) (*db_models.Chat, error) {
	chat := &db_models.Chat{}
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Model,
		&chat.MessageCount,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func collectChats(rows pgx.Rows) ([]db_models.Chat, error) {
	var chats []db_models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chats = append(chats, *chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}
	return chats, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
