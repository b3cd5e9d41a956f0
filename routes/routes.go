package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/esports-registration/docs" // swagger spec
	"github.com/Dosada05/esports-registration/handlers"
	"github.com/Dosada05/esports-registration/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	matchHandler *handlers.MatchHandler,
) {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(chiMiddleware.Timeout(timeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичное чтение
		r.Get("/search", tournamentHandler.Search)
		r.Get("/getBracket", tournamentHandler.GetBracket)
		r.Get("/searchParticipatingTeams", participantHandler.SearchParticipatingTeams)
		r.Get("/searchFacilitators", participantHandler.SearchFacilitators)
		r.Get("/searchMatches", matchHandler.SearchMatches)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/create", tournamentHandler.Create)
			r.Put("/updateDetails", tournamentHandler.UpdateDetails)
			r.Put("/start", tournamentHandler.Start)
			r.Put("/cancel", tournamentHandler.Cancel)
			r.Delete("/delete", tournamentHandler.Delete)
			r.Put("/uploadLogo", tournamentHandler.UploadLogo)

			r.Post("/addTeam", participantHandler.AddTeam)
			r.Delete("/removeTeam", participantHandler.RemoveTeam)
			r.Put("/disqualifyTeam", participantHandler.DisqualifyTeam)
			r.Post("/addFacilitator", participantHandler.AddFacilitator)
			r.Post("/removeFacilitator", participantHandler.RemoveFacilitator)

			r.Put("/setMatchResult", matchHandler.SetMatchResult)
		})
	})
}
