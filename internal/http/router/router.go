package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"user-account-service/internal/http/handler"
	"user-account-service/internal/http/middleware"
	"user-account-service/internal/repository"
	"user-account-service/internal/security"
)

type Dependencies struct {
	Logger      *slog.Logger
	UserHandler *handler.UserHandler
	JWTManager  *security.JWTManager
	UserRepo    repository.UserRepository
	AuthLimiter *middleware.RateLimiter
	APILimiter  *middleware.RateLimiter

	// AvatarDir, when non-empty, is served statically under /avatars.
	AvatarDir string
}

func New(dep Dependencies) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if dep.Logger != nil {
		r.Use(middleware.RequestLogger(dep.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAuth := middleware.RequireAuth(dep.JWTManager, dep.UserRepo)

	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if dep.AuthLimiter != nil {
				r.Use(dep.AuthLimiter.Middleware())
			}
			r.Post("/signup", dep.UserHandler.Signup)
			r.Get("/verify/{verificationToken}", dep.UserHandler.Verify)
			r.Post("/verify", dep.UserHandler.ReVerify)
			r.Post("/login", dep.UserHandler.Login)
		})

		r.Group(func(r chi.Router) {
			if dep.APILimiter != nil {
				r.Use(dep.APILimiter.Middleware())
			}
			r.Use(requireAuth)
			r.Post("/logout", dep.UserHandler.Logout)
			r.Get("/current", dep.UserHandler.Current)
			r.Patch("/avatars", dep.UserHandler.UpdateAvatar)
		})
	})

	if dep.AvatarDir != "" {
		r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(dep.AvatarDir))))
	}

	return r
}
