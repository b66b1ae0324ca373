package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/database"
	"github.com/vancomm/minefield-server/internal/middleware"
	"github.com/vancomm/minefield-server/internal/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	logger  *slog.Logger
	router  *http.ServeMux
	db      *pgxpool.Pool
	redis   *redis.Client
	cookies *config.Cookies
	ws      *config.WebSocket
}

func New(logger *slog.Logger) *App {
	return &App{
		logger: logger,
		router: http.NewServeMux(),
	}
}

func (a *App) setup(ctx context.Context) error {
	db, migrator, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	a.db = db
	if version, dirty, err := migrator.Version(); err == nil {
		a.logger.Info("database migrated", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	jwt, err := config.NewJWT()
	if err != nil {
		return fmt.Errorf("unable to read jwt config: %w", err)
	}
	a.cookies, err = config.NewCookies(jwt)
	if err != nil {
		return fmt.Errorf("unable to read cookies config: %w", err)
	}
	a.ws, err = config.NewWebSocket()
	if err != nil {
		return fmt.Errorf("unable to read ws config: %w", err)
	}

	if opts := config.Redis(); opts != nil {
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.logger.Warn("redis is unreachable, rate limiting fails open", slog.Any("error", err))
		}
	}

	a.loadRoutes(repository.New(a.db))
	return nil
}

func (a *App) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Handler returns the router wrapped in the middleware chain, mounted under
// APP_BASE_PATH when one is configured.
func (a *App) Handler() http.Handler {
	mws := []middleware.Middleware{
		middleware.Auth(a.logger, a.cookies),
		middleware.Cors(),
	}
	if a.redis != nil {
		mws = append(mws, middleware.RateLimit(a.logger, a.redis, config.NewRateLimit()))
	}
	mws = append(mws, middleware.Logging(a.logger))

	var h http.Handler = a.router
	if base := strings.TrimSuffix(config.BasePath(), "/"); base != "" {
		root := http.NewServeMux()
		root.Handle(base+"/", http.StripPrefix(base, a.router))
		h = root
	}
	return middleware.Wrap(h, mws...)
}

// Start serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer a.close()

	addr := config.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return server.Shutdown(sCtx)
	})

	return g.Wait()
}
