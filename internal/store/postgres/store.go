package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	db_models "ownchat-backend/internal/models"
	"ownchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query
// methods serve pooled and transactional execution.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db   DBTX
	pool *pgxpool.Pool // nil inside a transaction
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, pool: db}
}

// WithTx runs fn against a transaction-scoped copy of the store. Any error
// from fn rolls the transaction back.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; just run fn on the same scope.
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&PostgresStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- User Methods ---

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, email, hashed_password, name, google_id, avatar_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, email, hashed_password, name, google_id, avatar_url, created_at, updated_at;
`

func (s *PostgresStore) CreateUser(ctx context.Context, arg store.CreateUserParams) (*db_models.User, error) {
	row := s.db.QueryRow(ctx, createUser,
		arg.ID,
		arg.Email,
		arg.HashedPassword, // pgx handles *string to NULL automatically
		arg.Name,
		arg.GoogleID,
		arg.AvatarURL,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// 23505 is unique_violation (duplicate email or google_id)
			log.Printf("ERROR [PostgresStore] CreateUser: PostgreSQL error for email %s: Code=%s, Message=%s", arg.Email, pgErr.Code, pgErr.Message)
		}
		return nil, fmt.Errorf("database error creating user: %w", err)
	}
	return user, nil
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, hashed_password, name, google_id, avatar_url, created_at, updated_at
FROM users
WHERE id = $1;
`

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, hashed_password, name, google_id, avatar_url, created_at, updated_at
FROM users
WHERE email = $1;
`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

const getUserByGoogleID = `-- name: GetUserByGoogleID :one
SELECT id, email, hashed_password, name, google_id, avatar_url, created_at, updated_at
FROM users
WHERE google_id = $1;
`

func (s *PostgresStore) GetUserByGoogleID(ctx context.Context, googleID string) (*db_models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, getUserByGoogleID, googleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user by google id: %w", err)
	}
	return user, nil
}

// UpdateUser builds the query dynamically based on which fields are provided.
func (s *PostgresStore) UpdateUser(ctx context.Context, arg store.UpdateUserParams) (*db_models.User, error) {
	setClauses := []string{}
	args := []interface{}{}
	argID := 1

	if arg.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *arg.Name)
		argID++
	}
	if arg.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argID))
		args = append(args, *arg.AvatarURL)
		argID++
	}
	if arg.GoogleID != nil {
		setClauses = append(setClauses, fmt.Sprintf("google_id = $%d", argID))
		args = append(args, *arg.GoogleID)
		argID++
	}

	if len(setClauses) == 0 {
		return s.GetUserByID(ctx, arg.ID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	args = append(args, arg.ID)

	query := fmt.Sprintf(`-- name: UpdateUser :one
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, email, hashed_password, name, google_id, avatar_url, created_at, updated_at;`,
		strings.Join(setClauses, ", "),
		argID,
	)

	user, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning updated user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*db_models.User, error) {
	user := &db_models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.Name,
		&user.GoogleID,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// --- Session Methods ---

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (id, user_id, expires_at)
VALUES ($1, $2, $3);
`

func (s *PostgresStore) CreateSession(ctx context.Context, session *db_models.Session) error {
	_, err := s.db.Exec(ctx, createSession, session.ID, session.UserID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("database error creating session: %w", err)
	}
	return nil
}

const getSession = `-- name: GetSession :one
SELECT id, user_id, expires_at, created_at
FROM sessions
WHERE id = $1;
`

func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*db_models.Session, error) {
	session := &db_models.Session{}
	err := s.db.QueryRow(ctx, getSession, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching session: %w", err)
	}
	return session, nil
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions
WHERE id = $1;
`

func (s *PostgresStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, deleteSession, id)
	if err != nil {
		return fmt.Errorf("database error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :exec
DELETE FROM sessions
WHERE expires_at < NOW();
`

// DeleteExpiredSessions removes stale session rows and returns how many were
// deleted. Called opportunistically from the server startup path.
func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, fmt.Errorf("database error deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
