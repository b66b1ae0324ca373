package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

func sendError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, werr := SendJSON(w, wrapError(err)); werr != nil {
		logger.Error(
			"failed to send error message",
			slog.Any("sent error", err),
			slog.Any("error", werr),
		)
	}
}

func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	logger.Error(msg, slog.Any("error", err))
}

// statusFor maps game and storage errors to the HTTP status reported to
// the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, mines.ErrOutOfRange),
		errors.Is(err, mines.ErrUnknownLevel):
		return http.StatusBadRequest
	case errors.Is(err, mines.ErrGameOver),
		errors.Is(err, mines.ErrAlreadyOpened),
		errors.Is(err, repository.ErrStaleSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
