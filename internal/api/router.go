package api

import (
	"net/http"
	"time"

	"ownchat-backend/internal/config"
	"ownchat-backend/internal/handlers"
	"ownchat-backend/internal/store"
	"ownchat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds everything the router needs: handlers, the store
// for session resolution, and configuration.
type RouterDependencies struct {
	AuthHandler *handlers.AuthHandler
	ChatHandler *handlers.ChatHandlers
	Store       store.Store
	Config      *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// --- CORS Configuration ---
	// Credentials must be allowed for the session cookie to travel.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes (No Session Required) ---
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httputil.RespondJSON(w, http.StatusOK, map[string]string{
				"status":  "healthy",
				"message": "OwnChat API is running",
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/google-login", deps.AuthHandler.HandleGoogleLogin)

			// --- Authenticated Auth Routes ---
			r.Group(func(r chi.Router) {
				r.Use(SessionAuthMiddleware(deps.Config.SessionSecret, deps.Store))
				r.Get("/profile", deps.AuthHandler.HandleGetProfile)
				r.Put("/profile", deps.AuthHandler.HandleUpdateProfile)
				r.Post("/logout", deps.AuthHandler.HandleLogout)
			})
		})

		// --- Chat Routes (Session Required) ---
		r.Route("/chats", func(r chi.Router) {
			r.Use(SessionAuthMiddleware(deps.Config.SessionSecret, deps.Store))

			r.Get("/", deps.ChatHandler.HandleListChats)
			r.Post("/", deps.ChatHandler.HandleCreateChat)
			r.Get("/search", deps.ChatHandler.HandleSearchChats)
			r.Get("/{chatID}", deps.ChatHandler.HandleGetChat)
			r.Put("/{chatID}", deps.ChatHandler.HandleUpdateChat)
			r.Delete("/{chatID}", deps.ChatHandler.HandleDeleteChat)
			r.Post("/{chatID}/messages", deps.ChatHandler.HandleSendMessage)
			r.Post("/{chatID}/regenerate-title", deps.ChatHandler.HandleRegenerateTitle)
		})
	})

	return r
}
