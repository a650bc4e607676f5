// Package http exposes the learning use cases over JSON and a live dashboard websocket.
package http

import (
	"net/http"

	"english-mcq-service/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Service        LearningService
	Auth           *Authenticator
	Logger         *logger.Logger
	AllowedOrigins []string
	// AvatarDir is served under /avatars/ when set.
	AvatarDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	handler := NewHandler(cfg.Service)
	ws := NewWSHandler(cfg.Service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-Email", "X-User-Name"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.AvatarDir != "" {
		r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(cfg.AvatarDir))))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(cfg.Auth.Middleware(cfg.Service))

		api.Post("/mcqs/answer", handler.SubmitAnswer)
		api.Post("/mcqs/submit", handler.SubmitQuiz)
		api.Post("/mcqs/generate", handler.GenerateQuestions)

		api.Post("/retest/generate", handler.RetestQuestions)
		api.Post("/retest/submit", handler.SubmitRetest)

		api.Get("/dashboard", handler.Dashboard)
		api.Post("/dashboard/reset", handler.ResetDashboard)
		api.Get("/dashboard/live", ws.ServeLive)

		api.Get("/users/me", handler.Me)
		api.Put("/users/me/avatar", handler.UpdateAvatar)
		api.Delete("/users/me/data", handler.EraseUserData)
	})
	return r
}
