package postgres

import (
	"context"
	"fmt"

	db_models "ownchat-backend/internal/models"

	"github.com/google/uuid"
)

const createMessage = `-- name: CreateMessage :exec
INSERT INTO messages (id, chat_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5);
`

// CreateMessage inserts a message. The caller supplies created_at: NOW() is
// fixed per transaction in Postgres, which would give the user and assistant
// rows of one exchange identical timestamps and break creation-order reads.
// The role CHECK constraint rejects anything other than user/assistant.
func (s *PostgresStore) CreateMessage(ctx context.Context, message *db_models.Message) error {
	_, err := s.db.Exec(ctx, createMessage,
		message.ID,
		message.ChatID,
		message.Role,
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("database error creating message: %w", err)
	}
	return nil
}

const listMessagesByChat = `-- name: ListMessagesByChat :many
SELECT id, chat_id, role, content, created_at
FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC;
`

func (s *PostgresStore) ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]db_models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesByChat, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db_models.Message
	for rows.Next() {
		var m db_models.Message
		if err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&m.Role,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

const countMessagesByChat = `-- name: CountMessagesByChat :one
SELECT COUNT(*)
FROM messages
WHERE chat_id = $1;
`

func (s *PostgresStore) CountMessagesByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, countMessagesByChat, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting messages: %w", err)
	}
	return count, nil
}
