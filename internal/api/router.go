// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetrics/meetrics/internal/config"
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a router around the given handler.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	r.Use(RequestMetrics())

	r.Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			router.cfg.RateLimitReqs,
			router.cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", router.handler.Meetings)
			r.Post("/", router.handler.CreateMeeting)
			r.Get("/upcoming", router.handler.UpcomingMeetings)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handler.GetMeeting)
				r.Delete("/", router.handler.DeleteMeeting)
				r.Get("/participants", router.handler.Participants)
				r.Post("/participants/refresh", router.handler.RefreshParticipants)
				r.Get("/polls", router.handler.Polls)
				r.Put("/assistance", router.handler.SaveAssistance)
				r.Get("/assistance", router.handler.GetAssistance)
			})
		})

		r.Post("/sync", router.handler.Sync)
		r.Post("/retention/run", router.handler.RunRetention)
		r.Get("/archives", router.handler.Archives)
		r.Get("/archives/stats", router.handler.ArchiveStats)
	})

	return r
}

// NewServer builds the http.Server around the assembled routes.
func NewServer(addr string, handler http.Handler, cfg *config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.Timeout,
		WriteTimeout:      cfg.Timeout,
		IdleTimeout:       2 * cfg.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
