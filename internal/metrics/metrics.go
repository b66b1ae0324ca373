package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vancomm/minefield-server/internal/mines"
)

const namespace = "minefield"

var (
	GamesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started, by level",
		},
		[]string{"level"},
	)

	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached a terminal status, by level and status",
		},
		[]string{"level", "status"},
	)

	CellsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_opened_total",
			Help:      "Cell activations, by level",
		},
		[]string{"level"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Handled HTTP requests, by method and status code",
		},
		[]string{"method", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GamesStarted, GamesFinished, CellsOpened,
		HTTPRequests, HTTPDuration, RateLimited,
	)
}

func GameStarted(level mines.Level) {
	GamesStarted.WithLabelValues(level.String()).Inc()
}

func CellOpened(level mines.Level) {
	CellsOpened.WithLabelValues(level.String()).Inc()
}

// GameFinished is a no-op while s is still being played.
func GameFinished(s *mines.Session) {
	GameEnded(s.Level, s.Status)
}

func GameEnded(level mines.Level, status mines.Status) {
	if status == mines.Playing {
		return
	}
	GamesFinished.WithLabelValues(level.String(), status.String()).Inc()
}

var Handler = promhttp.Handler
