package services

import (
	"context"
	"strings"
	"time"

	"ownchat-backend/internal/models"
	"ownchat-backend/internal/store"

	"github.com/google/uuid"
)

// mockStore is an in-memory Store for service tests. WithTx snapshots state
// and restores it when the callback fails, mirroring a rollback.
type mockStore struct {
	users    map[uuid.UUID]*models.User
	sessions map[uuid.UUID]*models.Session
	chats    map[uuid.UUID]*models.Chat
	messages map[uuid.UUID][]models.Message
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[uuid.UUID]*models.User),
		sessions: make(map[uuid.UUID]*models.Session),
		chats:    make(map[uuid.UUID]*models.Chat),
		messages: make(map[uuid.UUID][]models.Message),
	}
}

func (m *mockStore) CreateUser(ctx context.Context, arg store.CreateUserParams) (*models.User, error) {
	now := time.Now()
	u := &models.User{
		ID:             arg.ID,
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		Name:           arg.Name,
		GoogleID:       arg.GoogleID,
		AvatarURL:      arg.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	for _, u := range m.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UpdateUser(ctx context.Context, arg store.UpdateUserParams) (*models.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if arg.Name != nil {
		u.Name = *arg.Name
	}
	if arg.AvatarURL != nil {
		u.AvatarURL = arg.AvatarURL
	}
	if arg.GoogleID != nil {
		u.GoogleID = arg.GoogleID
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *mockStore) CreateSession(ctx context.Context, session *models.Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *mockStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	for id, s := range m.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CreateChat(ctx context.Context, arg store.CreateChatParams) (*models.Chat, error) {
	now := time.Now()
	c := &models.Chat{
		ID:        arg.ID,
		UserID:    arg.UserID,
		Title:     arg.Title,
		Model:     arg.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.chats[c.ID] = c
	return c, nil
}

func (m *mockStore) GetChatByID(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	c, ok := m.chats[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	out := *c
	out.MessageCount = int64(len(m.messages[id]))
	return &out, nil
}

func (m *mockStore) ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	for _, c := range m.chats {
		if c.UserID == userID {
			out := *c
			out.MessageCount = int64(len(m.messages[c.ID]))
			chats = append(chats, out)
		}
	}
	return chats, nil
}

func (m *mockStore) SearchChatsByUser(ctx context.Context, userID uuid.UUID, query string) ([]models.Chat, error) {
	q := strings.ToLower(query)
	var chats []models.Chat
	for _, c := range m.chats {
		if c.UserID != userID {
			continue
		}
		match := strings.Contains(strings.ToLower(c.Title), q)
		if !match {
			for _, msg := range m.messages[c.ID] {
				if strings.Contains(strings.ToLower(msg.Content), q) {
					match = true
					break
				}
			}
		}
		if match {
			out := *c
			out.MessageCount = int64(len(m.messages[c.ID]))
			chats = append(chats, out)
		}
	}
	return chats, nil
}

func (m *mockStore) UpdateChat(ctx context.Context, arg store.UpdateChatParams) (*models.Chat, error) {
	c, ok := m.chats[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return nil, store.ErrNotFound
	}
	if arg.Title != nil {
		c.Title = *arg.Title
	}
	if arg.Model != nil {
		c.Model = *arg.Model
	}
	c.UpdatedAt = time.Now()
	out := *c
	out.MessageCount = int64(len(m.messages[c.ID]))
	return &out, nil
}

func (m *mockStore) UpdateChatTitle(ctx context.Context, id, userID uuid.UUID, title string) error {
	c, ok := m.chats[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) TouchChat(ctx context.Context, id, userID uuid.UUID) error {
	c, ok := m.chats[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) DeleteChat(ctx context.Context, id, userID uuid.UUID) error {
	c, ok := m.chats[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.chats, id)
	delete(m.messages, id)
	return nil
}

func (m *mockStore) CreateMessage(ctx context.Context, message *models.Message) error {
	m.messages[message.ChatID] = append(m.messages[message.ChatID], *message)
	return nil
}

func (m *mockStore) ListMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	return append([]models.Message(nil), m.messages[chatID]...), nil
}

func (m *mockStore) CountMessagesByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	return int64(len(m.messages[chatID])), nil
}

func (m *mockStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	chatsSnap := make(map[uuid.UUID]models.Chat, len(m.chats))
	for id, c := range m.chats {
		chatsSnap[id] = *c
	}
	messagesSnap := make(map[uuid.UUID][]models.Message, len(m.messages))
	for id, msgs := range m.messages {
		messagesSnap[id] = append([]models.Message(nil), msgs...)
	}

	if err := fn(m); err != nil {
		m.chats = make(map[uuid.UUID]*models.Chat, len(chatsSnap))
		for id := range chatsSnap {
			c := chatsSnap[id]
			m.chats[id] = &c
		}
		m.messages = messagesSnap
		return err
	}
	return nil
}
