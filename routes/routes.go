package routes

import (
	"net/http"

	"github.com/brianbrunner/just2guys/docs"
	"github.com/brianbrunner/just2guys/handlers"
	"github.com/brianbrunner/just2guys/middleware"
	"github.com/brianbrunner/just2guys/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret        string
	CORSAllowOrigins []string
	RateLimitRPS     float64
	RateLimitBurst   int
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	leagueHandler *handlers.LeagueHandler,
	historyHandler *handlers.HistoryHandler,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
	mcpHandler http.Handler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.OpenAPI)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/leagues/{leagueKey}", webSocketHandler.ServeWs)
	router.Handle("/mcp", mcpHandler)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

		r.Route("/leagues", func(r chi.Router) {
			r.Get("/", leagueHandler.ListLeagues)
			r.Route("/{leagueKey}", func(r chi.Router) {
				r.Get("/", leagueHandler.GetLeague)
				r.Get("/standings", leagueHandler.GetStandings)
				r.Get("/bracket", leagueHandler.GetBracket)
			})
		})
		r.Get("/teams/{teamKey}", leagueHandler.GetTeam)
		r.Get("/matchups/{matchupID}/roster", leagueHandler.GetMatchupRoster)
		r.Get("/rivalries", historyHandler.ListRivalries)
		r.Get("/managers/{managerKey}/rivalries", historyHandler.GetManagerRivalries)
		r.Get("/records", historyHandler.GetRecords)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(opts.JWTSecret))
				r.Use(middleware.Authorize(services.RoleAdmin))

				r.Post("/managers/merge", adminHandler.MergeManagers)
				r.Post("/leagues/{leagueKey}/advance", adminHandler.AdvanceLeague)
				r.Post("/leagues/{leagueKey}/reset-playoffs", adminHandler.ResetPlayoffs)
			})
		})
	})
}
