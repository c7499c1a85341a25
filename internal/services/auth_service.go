package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/config"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for the auth service.
var (
	ErrValidation         = errors.New("input validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidGoogleToken = errors.New("invalid Google token")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingSession    = errors.New("failed to create session")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	minPasswordLen = 8
	minNameLen     = 2
)

// GoogleTokenVerifier verifies a posted Google ID token and returns its
// identity claims.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, credential string) (*auth.GoogleIdentity, error)
}

type AuthService struct {
	store  store.Store
	cfg    *config.Config
	google GoogleTokenVerifier
}

func NewAuthService(s store.Store, cfg *config.Config, google GoogleTokenVerifier) *AuthService {
	return &AuthService{
		store:  s,
		cfg:    cfg,
		google: google,
	}
}

// AuthResult bundles the authenticated user with their signed session token.
type AuthResult struct {
	User         *models.User
	SessionToken string
	ExpiresAt    time.Time
}

// Register creates a new user with a password credential and establishes a
// session.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password, and name are required", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLen)
	}
	if len(name) < minNameLen {
		return nil, fmt.Errorf("%w: name must be at least %d characters long", ErrValidation, minNameLen)
	}

	// Check if user already exists (email is stored lowercased, so this is
	// case-insensitive).
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Error checking user existence for %s: %v", email, err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", email, err)
		return nil, ErrHashingPassword
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: &hashedPassword,
		Name:           name,
	})
	if err != nil {
		log.Printf("Error creating user for %s: %v", email, err)
		return nil, fmt.Errorf("creating user failed: %w", err)
	}

	result, err := s.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully registered user %s (ID: %s)", email, user.ID)
	return result, nil
}

// Login verifies password credentials and establishes a session. The error is
// deliberately the same whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Printf("Error retrieving user %s during login: %v", email, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully logged in user %s (ID: %s)", email, user.ID)
	return result, nil
}

// GoogleLogin verifies a Google ID token and signs the user in, creating or
// linking the account as needed:
//   - a user already linked to this Google ID is reused (name/avatar refreshed)
//   - otherwise a user with the same email gets the Google ID linked
//   - otherwise a new user is created without a password credential
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) (*AuthResult, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: Google credential is required", ErrValidation)
	}

	identity, err := s.google.Verify(ctx, credential)
	if err != nil {
		log.Printf("Google token verification failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}

	email := strings.TrimSpace(strings.ToLower(identity.Email))
	googleID := identity.GoogleID

	user, err := s.store.GetUserByGoogleID(ctx, googleID)
	switch {
	case err == nil:
		// Known Google account; refresh profile fields from the token.
		user, err = s.store.UpdateUser(ctx, store.UpdateUserParams{
			ID:        user.ID,
			Name:      &identity.Name,
			AvatarURL: &identity.AvatarURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to refresh Google user: %w", err)
		}

	case errors.Is(err, store.ErrNotFound):
		existing, lookupErr := s.store.GetUserByEmail(ctx, email)
		switch {
		case lookupErr == nil:
			// Same email registered with a password; link the Google account.
			user, err = s.store.UpdateUser(ctx, store.UpdateUserParams{
				ID:        existing.ID,
				GoogleID:  &googleID,
				AvatarURL: &identity.AvatarURL,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to link Google account: %w", err)
			}
		case errors.Is(lookupErr, store.ErrNotFound):
			user, err = s.store.CreateUser(ctx, store.CreateUserParams{
				ID:        uuid.New(),
				Email:     email,
				Name:      identity.Name,
				GoogleID:  &googleID,
				AvatarURL: &identity.AvatarURL,
			})
			if err != nil {
				return nil, fmt.Errorf("creating Google user failed: %w", err)
			}
		default:
			return nil, fmt.Errorf("failed to check user existence: %w", lookupErr)
		}

	default:
		return nil, fmt.Errorf("failed to look up Google user: %w", err)
	}

	result, err := s.establishSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully logged in Google user %s (ID: %s)", email, user.ID)
	return result, nil
}

// GetProfile returns the current user's record.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile applies a partial update to name and/or avatar.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	params := store.UpdateUserParams{ID: userID}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < minNameLen {
			return nil, fmt.Errorf("%w: name must be at least %d characters long", ErrValidation, minNameLen)
		}
		params.Name = &name
	}
	if req.AvatarURL != nil {
		params.AvatarURL = req.AvatarURL
	}

	user, err := s.store.UpdateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout deletes the server-side session; the cookie is expired by the
// handler.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// establishSession creates a session row and signs its cookie token.
func (s *AuthService) establishSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		log.Printf("Error creating session for user %s: %v", user.ID, err)
		return nil, ErrCreatingSession
	}

	token, err := auth.NewSessionToken(session.ID, user.ID, s.cfg.SessionSecret, session.ExpiresAt)
	if err != nil {
		return nil, ErrCreatingSession
	}

	return &AuthResult{
		User:         user,
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}
