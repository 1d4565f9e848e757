// Package handlers implements the preflight HTTP endpoints.
package handlers

import (
	"context"

	"preflight/internal/models"
	"preflight/internal/pkg/logger"
	"preflight/internal/preflight"
	"preflight/internal/scene"
)

// Catalog is the scene export catalog. *catalog.Catalog implements it.
type Catalog interface {
	Register(ctx context.Context, name string, format scene.Format, raw []byte) (*models.SceneExport, error)
	Get(ctx context.Context, id string) (*models.SceneExport, error)
	List(ctx context.Context) ([]models.SceneExport, error)
	Delete(ctx context.Context, id string) error
	Load(ctx context.Context, id string) (*scene.Export, *models.SceneExport, error)
}

// Queue accepts asynchronous preflight requests.
type Queue interface {
	Push(ctx context.Context, sceneID string) error
}

// Reports hands out finished asynchronous reports, once each.
type Reports interface {
	Take(ctx context.Context, sceneID string) ([]byte, error)
}

// Engine validates an inspected scene.
type Engine interface {
	Run(insp preflight.Inspector) (preflight.Result, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Catalog Catalog
	Queue   Queue
	Reports Reports
	Engine  Engine
	Checks  map[string]HealthCheck
	// Provider is the storage provider name reported by /health.
	Provider string
	Version  string
	Log      *logger.Logger
}

type Handler struct {
	catalog  Catalog
	queue    Queue
	reports  Reports
	engine   Engine
	checks   map[string]HealthCheck
	provider string
	version  string
	log      *logger.Logger
}

func New(d Deps) *Handler {
	version := d.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		catalog:  d.Catalog,
		queue:    d.Queue,
		reports:  d.Reports,
		engine:   d.Engine,
		checks:   d.Checks,
		provider: d.Provider,
		version:  version,
		log:      d.Log.WithComponent("httpapi"),
	}
}
