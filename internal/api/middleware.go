package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"ownchat-backend/internal/auth"
	"ownchat-backend/internal/models"
	"ownchat-backend/internal/store"
	"ownchat-backend/pkg/httputil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionResolver is the subset of the store the middleware needs to turn a
// cookie into a live session.
type SessionResolver interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// SessionAuthMiddleware authenticates requests via the session cookie. The
// cookie carries a signed token naming a server-side session row; the row
// must exist and be unexpired. On success, UserID and SessionID are injected
// into the request context.
func SessionAuthMiddleware(sessionSecret string, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := auth.ParseSessionToken(cookie.Value, sessionSecret)
			if err != nil {
				log.Printf("Auth Middleware: Error parsing session token: %v", err)
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.RespondError(w, http.StatusUnauthorized, "Session has expired")
				} else {
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid session")
				}
				return
			}

			session, err := sessions.GetSession(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					httputil.RespondError(w, http.StatusUnauthorized, "Session not found")
					return
				}
				log.Printf("Auth Middleware: Error loading session %s: %v", claims.SessionID, err)
				httputil.RespondError(w, http.StatusInternalServerError, "Failed to verify session")
				return
			}

			if time.Now().After(session.ExpiresAt) {
				// Best-effort cleanup; the periodic sweep catches stragglers.
				if err := sessions.DeleteSession(r.Context(), session.ID); err != nil {
					log.Printf("Auth Middleware: Error deleting expired session %s: %v", session.ID, err)
				}
				httputil.RespondError(w, http.StatusUnauthorized, "Session has expired")
				return
			}

			if session.UserID != claims.UserID {
				log.Printf("Auth Middleware: Session %s user mismatch", session.ID)
				httputil.RespondError(w, http.StatusUnauthorized, "Invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), auth.UserIDKey, session.UserID)
			ctx = context.WithValue(ctx, auth.SessionIDKey, session.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
