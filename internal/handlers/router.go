package handlers

import (
	"net/http"
	"time"

	"taskBoard/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Tokens         middleware.TokenParser
	Users          middleware.UserLookup
	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimit      int
}

type Handlers struct {
	Auth   AuthHandler
	Boards BoardHandler
	Tasks  TaskHandler
	Admin  AdminHandler
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit))
	}
	r.Use(middleware.Provenance)

	r.Get("/health", h.Tasks.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register) // POST /auth/register
		r.Post("/login", h.Auth.Login)       // POST /auth/login
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Tokens, cfg.Users))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.Auth.GetProfile)
			r.Put("/", h.Auth.UpdateProfile)
			r.Post("/password", h.Auth.ChangePassword)
		})

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", h.Boards.ListBoards) // GET /boards
			r.Post("/", h.Boards.PostBoard) // POST /boards

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Boards.GetBoard)
				r.Put("/", h.Boards.UpdateBoard)
				r.Delete("/", h.Boards.DeleteBoard)

				r.Post("/activate", h.Boards.Activate)     // POST /boards/{id}/activate
				r.Post("/deactivate", h.Boards.Deactivate) // POST /boards/{id}/deactivate

				r.Get("/access", h.Boards.ListAccess)
				r.Post("/access", h.Boards.GrantAccess)
			})
		})

		r.Route("/access/{id}", func(r chi.Router) {
			r.Put("/", h.Boards.UpdateAccess)
			r.Delete("/", h.Boards.RevokeAccess)
		})

		r.Get("/tags", h.Tasks.ListTags) // GET /tags

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.ListTasks)  // GET /tasks
			r.Post("/", h.Tasks.PostTask)  // POST /tasks
			r.Get("/stats", h.Tasks.Stats) // GET /tasks/stats

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Tasks.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", h.Tasks.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", h.Tasks.DeleteTaskByID) // DELETE /tasks/{id}

				r.Post("/archive", h.Tasks.ArchiveTask)            // POST /tasks/{id}/archive
				r.Post("/toggle-complete", h.Tasks.ToggleComplete) // POST /tasks/{id}/toggle-complete
				r.Get("/history", h.Tasks.History)                 // GET /tasks/{id}/history
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/stats", h.Admin.Stats)
			r.Get("/users", h.Admin.ListUsers)
			r.Post("/users", h.Admin.CreateUser)
			r.Put("/users/{id}", h.Admin.UpdateUser)
			r.Delete("/users/{id}", h.Admin.DeleteUser)
		})
	})

	return otelhttp.NewHandler(r, "taskboard")
}
