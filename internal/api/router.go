// Package api serves the survey pipeline and the form definition endpoints
// over HTTP.
package api

import (
	"context"
	"net/http"

	"survey-forms/internal/common/logger"
	"survey-forms/internal/survey"
	"survey-forms/internal/survey/form"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SurveyService is the part of survey.Service the handlers use.
type SurveyService interface {
	Open(ctx context.Context, fileName, rawQuery string) (*form.Session, error)
	Submit(ctx context.Context, sess *form.Session, values form.Values) (*survey.Result, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// SchemaCache drops cached form definitions.
type SchemaCache interface {
	Invalidate(ctx context.Context, fileName string) error
}

type Handler struct {
	service   SurveyService
	publicDir string
	checks    []Check
	cache     SchemaCache
	logger    logger.Logger
}

func NewHandler(service SurveyService, publicDir string, checks []Check, log logger.Logger) *Handler {
	return &Handler{service: service, publicDir: publicDir, checks: checks, logger: log}
}

// WithSchemaCache lets read-json?refresh=1 evict a cached definition so the
// next survey open reloads it from its sources.
func (h *Handler) WithSchemaCache(c SchemaCache) *Handler {
	h.cache = c
	return h
}

// Routes returns the full router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/data/{fileName}", h.PublicFile)

	r.Route("/api", func(r chi.Router) {
		r.Get("/form-builder/read-json", h.ReadJSON)
		r.Get("/surveys/{fileName}", h.OpenSurvey)
		r.Post("/surveys/{fileName}/submit", h.SubmitSurvey)
	})
	return r
}
