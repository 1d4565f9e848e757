// Package httpapi assembles the preflight HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"preflight/internal/httpapi/handlers"
	"preflight/internal/httpkit"
	"preflight/internal/pkg/logger"
	"preflight/internal/pkg/middleware"
)

type Deps struct {
	Handlers       handlers.Deps
	Log            *logger.Logger
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.Logging(d.Log))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(d.Log, fn)
	}

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- AD HOC ----
	r.Post("/preflight", wrap(h.PostPreflight))

	// ---- SCENES ----
	r.Post("/scenes", wrap(h.PostScene))
	r.Get("/scenes", wrap(h.ListScenes))
	r.Get("/scenes/{sceneId}", wrap(h.GetScene))
	r.Delete("/scenes/{sceneId}", wrap(h.DeleteScene))
	r.Get("/scenes/{sceneId}/preflight", wrap(h.GetScenePreflight))
	r.Post("/scenes/{sceneId}/preflight", wrap(h.QueueScenePreflight))
	r.Get("/scenes/{sceneId}/report", wrap(h.GetSceneReport))

	return r
}
