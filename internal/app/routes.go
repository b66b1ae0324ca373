package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/vancomm/minefield-server/internal/handlers"
	"github.com/vancomm/minefield-server/internal/metrics"
	"github.com/vancomm/minefield-server/internal/repository"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes(repo *repository.Queries) {
	game := handlers.NewGameHandler(a.logger, repo, a.ws, createRand())
	auth := handlers.NewAuth(a.logger, repo, a.cookies)
	highscores := handlers.NewHighscores(a.logger, repo)

	a.router.HandleFunc("GET /levels", game.Levels)
	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("POST /game/{id}/open", game.Open)
	a.router.HandleFunc("POST /game/{id}/new", game.Restart)
	a.router.HandleFunc("GET /game/{id}/connect", game.ConnectWS)

	a.router.HandleFunc("GET /highscores", highscores.List)

	a.router.HandleFunc("POST /auth/register", auth.Register)
	a.router.HandleFunc("POST /auth/login", auth.Login)
	a.router.HandleFunc("POST /auth/logout", auth.Logout)
	a.router.HandleFunc("GET /auth/status", auth.Status)

	a.router.Handle("GET /metrics", metrics.Handler())
}
