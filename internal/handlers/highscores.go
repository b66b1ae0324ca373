package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vancomm/minefield-server/internal/repository"
)

type HighscoreStore interface {
	GetHighscores(context.Context, repository.HighscoreFilter) ([]repository.Highscore, error)
}

type Highscores struct {
	logger *slog.Logger
	repo   HighscoreStore
}

func NewHighscores(logger *slog.Logger, repo HighscoreStore) *Highscores {
	return &Highscores{logger: logger, repo: repo}
}

func (h *Highscores) List(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseHighscoresDTO(r.URL.Query())
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var filter repository.HighscoreFilter
	if dto.Level != "" {
		filter.Level = &dto.Level
	}
	if dto.Username != "" {
		filter.Username = &dto.Username
	}

	scores, err := h.repo.GetHighscores(r.Context(), filter)
	if err != nil {
		internalError(w, h.logger, "unable to fetch highscores", err)
		return
	}
	if scores == nil {
		scores = []repository.Highscore{}
	}

	sendJSONOrLog(w, h.logger, scores)
}
