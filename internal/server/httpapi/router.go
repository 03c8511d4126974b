package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// scopeChat guards every endpoint that touches conversations, messages,
// model configs, or attachments. The default "user" group grants it.
const scopeChat = "chat"

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRefresh)
				r.Post("/refresh", s.handleRefresh)
				r.Post("/logout", s.handleLogout)
				r.Put("/password", s.handleChangePassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAccess())
				r.Get("/me", s.handleMe)
				r.Put("/username", s.handleUpdateName)
				r.Put("/email", s.handleUpdateEmail)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccess(scopeChat))

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", s.handleListConversations)
				r.Post("/", s.handleCreateConversation)
				r.Delete("/", s.handleDeleteConversations)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/title", s.handleUpdateTitle)
					r.Post("/title/generate", s.handleGenerateTitle)
					r.Put("/model-config", s.handleUpdateConversationModel)
					r.Get("/messages", s.handleListMessages)
					r.Post("/chat", s.handleChat)
				})
			})

			r.Route("/model-configs", func(r chi.Router) {
				r.Get("/", s.handleListModelConfigs)
				r.Post("/", s.handleCreateModelConfig)
				r.Delete("/", s.handleDeleteModelConfigs)
				r.Put("/{id}", s.handleUpdateModelConfig)
			})

			r.Post("/attachments/presign", s.handlePresignAttachment)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info(r.Context(), "request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
