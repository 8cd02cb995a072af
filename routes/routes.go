package routes

import (
	"net/http"

	_ "github.com/Dosada05/duel-vault/docs"
	"github.com/Dosada05/duel-vault/handlers"
	"github.com/Dosada05/duel-vault/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Match      *handlers.MatchHandler
	Deck       *handlers.DeckHandler
	Tournament *handlers.TournamentHandler
	Format     *handlers.FormatHandler
	Dashboard  *handlers.DashboardHandler
	WebSocket  *handlers.WebSocketHandler
	Metrics    http.Handler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

// SetupRoutes mounts the API under /api. Reads are public; every write goes
// through the bearer token check.
func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", h.Metrics)
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	auth := middleware.Authenticate(opts.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard.Stats)

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMatches)
			r.Get("/head-to-head", h.Match.HeadToHead)
			r.Get("/{matchID}", h.Match.GetMatch)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", h.Match.CreateMatch)
				r.Delete("/", h.Match.DeleteMatches)
				r.Put("/{matchID}", h.Match.UpdateMatch)
				r.Delete("/{matchID}", h.Match.DeleteMatch)
				r.Post("/{matchID}/bracket-sync", h.Match.ResyncBracket)
			})
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", h.Deck.ListDecks)
			r.Get("/{deckID}", h.Deck.GetDeck)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", h.Deck.CreateDeck)
				r.Delete("/", h.Deck.DeleteDecks)
				r.Put("/{deckID}", h.Deck.UpdateDeck)
				r.Delete("/{deckID}", h.Deck.DeleteDeck)
				r.Post("/{deckID}/recalculate", h.Deck.RecalculateCounters)
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/stages/{stageOrder}", h.Tournament.GetStageHandler)
			r.Get("/{tournamentID}/standings", h.Tournament.ListStandingsHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", h.Tournament.CreateHandler)
				r.Delete("/", h.Tournament.BulkDeleteHandler)
				r.Put("/{tournamentID}", h.Tournament.UpdateDetailsHandler)
				r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
				r.Put("/{tournamentID}/stages/{stageOrder}", h.Tournament.UploadStageHandler)
				r.Put("/{tournamentID}/standings/{deckID}", h.Tournament.SetFinalRankHandler)
			})
		})

		r.Route("/formats", func(r chi.Router) {
			r.Get("/", h.Format.ListFormats)
			r.With(auth).Post("/", h.Format.CreateFormat)
		})

		r.Route("/archetypes", func(r chi.Router) {
			r.Get("/", h.Format.ListArchetypes)
			r.With(auth).Post("/", h.Format.CreateArchetype)
		})
	})
}
