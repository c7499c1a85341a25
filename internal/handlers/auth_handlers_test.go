package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/services"

	"github.com/google/uuid"
)

// fakeAuthService satisfies AuthService with overridable behaviors.
type fakeAuthService struct {
	registerFn      func(ctx context.Context, email, password, name string) (*services.AuthResult, error)
	loginFn         func(ctx context.Context, email, password string) (*services.AuthResult, error)
	googleLoginFn   func(ctx context.Context, credential string) (*services.AuthResult, error)
	getProfileFn    func(ctx context.Context, userID uuid.UUID) (*models.User, error)
	updateProfileFn func(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error)
	logoutFn        func(ctx context.Context, sessionID uuid.UUID) error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, name string) (*services.AuthResult, error) {
	return f.registerFn(ctx, email, password, name)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	return f.loginFn(ctx, email, password)
}

func (f *fakeAuthService) GoogleLogin(ctx context.Context, credential string) (*services.AuthResult, error) {
	return f.googleLoginFn(ctx, credential)
}

func (f *fakeAuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return f.getProfileFn(ctx, userID)
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	return f.updateProfileFn(ctx, userID, req)
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return f.logoutFn(ctx, sessionID)
}

func testAuthResult() *services.AuthResult {
	return &services.AuthResult{
		User: &models.User{
			ID:    uuid.New(),
			Email: "alice@example.com",
			Name:  "Alice",
		},
		SessionToken: "signed-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestHandleRegisterSuccess(t *testing.T) {
	svc := &fakeAuthService{
		registerFn: func(ctx context.Context, email, password, name string) (*services.AuthResult, error) {
			return testAuthResult(), nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(
		`{"email":"alice@example.com","password":"password1","name":"Alice"}`))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.Value != "signed-token" {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}

	var resp models.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RedirectURL != "/chat" {
		t.Errorf("expected redirect hint /chat, got %q", resp.RedirectURL)
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("unexpected user in response: %+v", resp.User)
	}
}

func TestHandleRegisterErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", services.ErrValidation, http.StatusBadRequest},
		{"duplicate email", services.ErrEmailTaken, http.StatusBadRequest},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeAuthService{
				registerFn: func(ctx context.Context, email, password, name string) (*services.AuthResult, error) {
					return nil, tc.err
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(
				`{"email":"alice@example.com","password":"password1","name":"Alice"}`))
			rec := httptest.NewRecorder()
			h.HandleRegister(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if sessionCookie(t, rec) != nil {
				t.Error("no cookie should be set on failure")
			}
		})
	}
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return nil, services.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(
		`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleLoginMissingFields(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleGoogleLoginInvalidToken(t *testing.T) {
	svc := &fakeAuthService{
		googleLoginFn: func(ctx context.Context, credential string) (*services.AuthResult, error) {
			return nil, services.ErrInvalidGoogleToken
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest("POST", "/api/auth/google-login", strings.NewReader(`{"credential":"garbage"}`))
	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleGetProfileRequiresAuth(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest("GET", "/api/auth/profile", nil)
	rec := httptest.NewRecorder()
	h.HandleGetProfile(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity in context, got %d", rec.Code)
	}
}

func TestHandleLogoutClearsCookie(t *testing.T) {
	var deleted uuid.UUID
	svc := &fakeAuthService{
		logoutFn: func(ctx context.Context, sessionID uuid.UUID) error {
			deleted = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc)

	sessionID := uuid.New()
	ctx := context.WithValue(context.Background(), auth.UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, auth.SessionIDKey, sessionID)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != sessionID {
		t.Errorf("expected session %s deleted, got %s", sessionID, deleted)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected an expiring cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}
}
