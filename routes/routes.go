package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/fencing-tableau/docs"
	"github.com/Dosada05/fencing-tableau/handlers"
	"github.com/Dosada05/fencing-tableau/middleware"
	"github.com/Dosada05/fencing-tableau/models"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	ScoreLimiter   *middleware.SessionRateLimiter
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	organizer := middleware.RequireSessionRole(models.RoleOrganizer)
	officials := middleware.RequireSessionRole(models.RoleOrganizer, models.RoleReferee)

	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.CreateHandler)
		r.Get("/", sessionHandler.ListHandler)

		r.Route("/{sessionID}", func(r chi.Router) {
			// Публичные маршруты
			r.Get("/", sessionHandler.GetHandler)
			r.Post("/login", authHandler.Login)
			r.Get("/competitors", sessionHandler.ListCompetitorsHandler)
			r.Get("/tableau", sessionHandler.TableauHandler)
			r.Get("/classification", sessionHandler.ClassificationHandler)
			r.Get("/preview", sessionHandler.PreviewHandler)
			r.Get("/bouts/search", sessionHandler.SearchHandler)
			r.Get("/pools/{poolID}", sessionHandler.GetPoolHandler)

			// Ввод счёта: судья или организатор
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(officials)
				if opts.ScoreLimiter != nil {
					r.Use(opts.ScoreLimiter.Limit)
				}
				r.Post("/bouts/score", sessionHandler.ScoreHandler)
			})

			// Только организатор
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(organizer)
				r.Delete("/", sessionHandler.DeleteHandler)
				r.Post("/competitors", sessionHandler.RegisterCompetitorsHandler)
				r.Post("/elimination", sessionHandler.StartEliminationHandler)
				r.Post("/competitors/{competitorID}/drop", sessionHandler.DropHandler)
				r.Post("/competitors/{competitorID}/restore", sessionHandler.RestoreHandler)
				r.Post("/pools", sessionHandler.GeneratePoolHandler)
				r.Post("/publish", sessionHandler.PublishHandler)
			})
		})
	})

	router.Get("/ws/sessions/{sessionID}", webSocketHandler.ServeWs)
}
