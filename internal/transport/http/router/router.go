package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/shelfshare/shelfshare/internal/transport/http/handlers"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

type Deps struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Books         *handlers.BookHandler
	Notifications *handlers.NotificationHandler
	WS            *handlers.WSHandler

	Verifier middleware.TokenVerifier
	Limiter  middleware.RateLimiter

	// Fallback per-IP limit applied router-wide when Redis is absent.
	GlobalLimit  int
	GlobalWindow time.Duration
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil || deps.Auth == nil || deps.Users == nil ||
		deps.Books == nil || deps.Notifications == nil || deps.WS == nil {
		return nil, fmt.Errorf("router: nil handler")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("router: nil token verifier")
	}

	authMW := middleware.Auth(deps.Verifier, response.WriteError)
	adminMW := middleware.RequireAdmin(response.WriteError)
	authRate := middleware.RateLimit(deps.Limiter, middleware.RouteLimit{
		Name:   "auth",
		Limit:  20,
		Window: time.Minute,
	}, response.WriteError)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if deps.Limiter == nil && deps.GlobalLimit > 0 {
		window := deps.GlobalWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(deps.GlobalLimit, window))
	}

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRate)
			r.Post("/register", deps.Auth.Register)
			r.Post("/authenticate", deps.Auth.Authenticate)
			r.Post("/activate-account", deps.Auth.ActivateAccount)
			r.Post("/forgot-password", deps.Auth.ForgotPassword)
			r.Post("/verify-reset-token", deps.Auth.VerifyResetCode)
			r.Post("/reset-password", deps.Auth.ResetPassword)
			r.Post("/set-password", deps.Auth.SetPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW)
			r.With(adminMW).Post("/", deps.Users.CreateUser)
			r.Patch("/change-password", deps.Users.ChangePassword)

			r.Route("/me/notifications", func(r chi.Router) {
				r.Get("/", deps.Notifications.List)
				r.Put("/{id}/read", deps.Notifications.MarkRead)
				r.Put("/read-all", deps.Notifications.MarkAllRead)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", deps.Books.Save)
			r.Get("/", deps.Books.ListDisplayable)
			r.Get("/owner", deps.Books.ListOwned)
			r.Get("/borrowed", deps.Books.ListBorrowed)
			r.Get("/returned", deps.Books.ListReturned)
			r.Get("/reservations", deps.Books.ListReservations)
			r.Get("/{id}", deps.Books.Get)

			r.Patch("/{id}/shareable", deps.Books.UpdateShareable)
			r.Patch("/{id}/archived", deps.Books.UpdateArchived)

			r.Post("/borrow/{id}", deps.Books.Borrow)
			r.Patch("/borrow/return/{id}", deps.Books.Return)
			r.Patch("/borrow/return/approve/{id}", deps.Books.ApproveReturn)

			r.Post("/reserve/{id}", deps.Books.Reserve)
			r.Delete("/reserve/{id}", deps.Books.CancelReservation)

			r.Post("/cover/{id}", deps.Books.UploadCover)
			r.Get("/cover/{id}", deps.Books.GetCover)

			r.Post("/{id}/feedbacks", deps.Books.SubmitFeedback)
			r.Get("/{id}/feedbacks", deps.Books.ListFeedback)
		})

		r.Get("/ws/notifications", deps.WS.Notifications)
	})

	return r, nil
}
