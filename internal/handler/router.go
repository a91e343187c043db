package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck-go/internal/middleware"
)

// RouterConfig carries the pieces the router wires together.
type RouterConfig struct {
	Auth      *AuthHandler
	Tasks     *TaskHandler
	JWTSecret string
	PublicDir string

	// AuthRateLimit applies per-IP rate limiting to the signup/login routes
	// when non-nil. Tests leave it nil.
	AuthRateLimit func(http.Handler) http.Handler
}

// NewRouter builds the full route tree: auth endpoints, owner-scoped task
// endpoints behind JWT verification, a health check, and optional SPA file
// serving.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if cfg.AuthRateLimit != nil {
			r.Use(cfg.AuthRateLimit)
		}
		r.Post("/api/auth/signup", cfg.Auth.HandleSignup)
		r.Post("/api/auth/login", cfg.Auth.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))
		r.Get("/api/auth/user", cfg.Auth.HandleCurrentUser)

		r.Get("/api/tasks", cfg.Tasks.HandleList)
		r.Post("/api/tasks", cfg.Tasks.HandleCreate)
		r.Patch("/api/tasks/reorder", cfg.Tasks.HandleReorder)
		r.Get("/api/tasks/{id}", cfg.Tasks.HandleGet)
		r.Patch("/api/tasks/{id}", cfg.Tasks.HandleUpdate)
		r.Delete("/api/tasks/{id}", cfg.Tasks.HandleDelete)
	})

	if cfg.PublicDir != "" {
		r.NotFound(SPA(cfg.PublicDir))
	}

	return r
}
