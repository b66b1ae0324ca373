package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/minefield-server/internal/config"
)

// Auth attaches the player's claims to the request context when the auth
// cookies are valid. Requests without them pass through anonymously.
func Auth(logger *slog.Logger, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParsePlayerClaims(r)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					logger.Debug("dropping invalid auth cookies", slog.Any("error", err))
					cookies.Clear(w)
				}
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PlayerClaims(r *http.Request) (*config.PlayerClaims, bool) {
	claims, ok := r.Context().Value(CtxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}
