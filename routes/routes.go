package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/association-tournaments/docs"
	"github.com/Dosada05/association-tournaments/handlers"
	"github.com/Dosada05/association-tournaments/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Tournament   *handlers.TournamentHandler
	Registration *handlers.RegistrationHandler
	Bracket      *handlers.BracketHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, auth *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/ws/tournaments", func(r chi.Router) {
		r.Get("/", h.WebSocket.ServeLobby)
		r.Get("/{tournamentID}", h.WebSocket.ServeTournament)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Post("/{tournamentID}/registrations", h.Registration.RegisterHandler)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleOperator))
					r.Post("/", h.Tournament.CreateHandler)
					r.Patch("/{tournamentID}/status", h.Tournament.UpdateStatusHandler)
					r.Post("/{tournamentID}/bracket", h.Bracket.GenerateHandler)
					r.Get("/{tournamentID}/registrations", h.Registration.ListHandler)
					r.Patch("/{tournamentID}/registrations/{registrationID}/status", h.Registration.UpdateStatusHandler)
				})
			})
		})
	})
}
