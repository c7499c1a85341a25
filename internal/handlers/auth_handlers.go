package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/services"
	"ownchat-backend/pkg/httputil"

	"github.com/google/uuid"
)

// AuthService defines the interface expected from the auth service.
// This promotes loose coupling and testability.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	GoogleLogin(ctx context.Context, credential string) (*services.AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authSvc AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// setSessionCookie delivers the session token to the browser. HttpOnly keeps
// it away from scripts; SameSite=Lax lets top-level navigations carry it.
func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleRegister handles the POST /api/auth/register request.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	result, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Printf("Register handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrEmailTaken):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Registration failed due to an internal error")
		}
		return
	}

	setSessionCookie(w, result.SessionToken, result.ExpiresAt)
	httputil.RespondJSON(w, http.StatusCreated, models.AuthResponse{
		Message:     "Registration successful",
		User:        models.NewUserResponse(result.User),
		RedirectURL: "/chat",
	})
}

// HandleLogin handles the POST /api/auth/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Login handler failed for email %s: %v", req.Email, err)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error")
		}
		return
	}

	setSessionCookie(w, result.SessionToken, result.ExpiresAt)
	httputil.RespondJSON(w, http.StatusOK, models.AuthResponse{
		Message:     "Login successful",
		User:        models.NewUserResponse(result.User),
		RedirectURL: "/chat",
	})
}

// HandleGoogleLogin handles the POST /api/auth/google-login request.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Credential == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Credential is required")
		return
	}

	result, err := h.authService.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		log.Printf("Google login handler failed: %v", err)
		switch {
		case errors.Is(err, services.ErrInvalidGoogleToken):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Google login failed due to an internal error")
		}
		return
	}

	setSessionCookie(w, result.SessionToken, result.ExpiresAt)
	httputil.RespondJSON(w, http.StatusOK, models.AuthResponse{
		Message:     "Login successful",
		User:        models.NewUserResponse(result.User),
		RedirectURL: "/chat",
	})
}

// HandleGetProfile handles the GET /api/auth/profile request.
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		log.Printf("Get profile handler failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.ProfileResponse{
		User: models.NewUserResponse(user),
	})
}

// HandleUpdateProfile handles the PUT /api/auth/profile request.
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	user, err := h.authService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		log.Printf("Update profile handler failed for user %s: %v", userID, err)
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.ProfileResponse{
		Message: "Profile updated",
		User:    models.NewUserResponse(user),
	})
}

// HandleLogout handles the POST /api/auth/logout request.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := auth.GetSessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), sessionID); err != nil {
		log.Printf("Logout handler failed for session %s: %v", sessionID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	clearSessionCookie(w)
	httputil.RespondJSON(w, http.StatusOK, models.MessageOnly{Message: "Logged out"})
}
