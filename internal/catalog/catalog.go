// Package catalog registers scene exports: the document goes to storage, the
// metadata row to the scene_exports table.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"preflight/internal/models"
	"preflight/internal/ports"
	"preflight/internal/repositories"
	"preflight/internal/scene"
)

// ErrNotFound is returned for unknown or deleted scene ids.
var ErrNotFound = repositories.ErrSceneNotFound

// Store persists catalog rows. *repositories.SceneRepository implements it.
type Store interface {
	Create(ctx context.Context, s *models.SceneExport) error
	Get(ctx context.Context, id string) (*models.SceneExport, error)
	List(ctx context.Context) ([]models.SceneExport, error)
	Delete(ctx context.Context, id string) error
}

type Catalog struct {
	store  Store
	loader *scene.Loader
	newID  func() string
}

func New(store Store, loader *scene.Loader) *Catalog {
	return &Catalog{store: store, loader: loader, newID: NewSceneID}
}

// NewSceneID returns a fresh scene export id.
func NewSceneID() string {
	return "scn_" + uuid.NewString()
}

// Register validates and stores an export document. name defaults to the scene file name.
func (c *Catalog) Register(ctx context.Context, name string, format scene.Format, raw []byte) (*models.SceneExport, error) {
	id := c.newID()
	exp, out, err := c.loader.Save(ctx, id, format, raw)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = exp.File.Name
	}
	rec := &models.SceneExport{
		ID:        id,
		Name:      name,
		FileName:  exp.File.Name,
		Format:    string(format),
		ObjectKey: out.ObjectKey,
		Provider:  c.loader.Provider(),
	}
	if err := c.store.Create(ctx, rec); err != nil {
		_ = c.loader.Delete(ctx, out.ObjectKey)
		return nil, fmt.Errorf("catalog scene %s: %w", id, err)
	}
	return rec, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.SceneExport, error) {
	return c.store.Get(ctx, id)
}

func (c *Catalog) List(ctx context.Context) ([]models.SceneExport, error) {
	return c.store.List(ctx)
}

// Delete retires the catalog row, then removes the stored document.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.loader.Delete(ctx, rec.ObjectKey); err != nil && !errors.Is(err, ports.ErrObjectNotFound) {
		return fmt.Errorf("delete stored export %s: %w", rec.ObjectKey, err)
	}
	return nil
}

// Load returns a catalogued export, decoded.
func (c *Catalog) Load(ctx context.Context, id string) (*scene.Export, *models.SceneExport, error) {
	rec, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	format, err := scene.ParseFormat(rec.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("scene %s: %w", id, err)
	}
	exp, err := c.loader.Load(ctx, rec.ObjectKey, format)
	if err != nil {
		return nil, nil, err
	}
	return exp, rec, nil
}

// LoadScene is Load without the catalog row.
func (c *Catalog) LoadScene(ctx context.Context, id string) (*scene.Export, error) {
	exp, _, err := c.Load(ctx, id)
	return exp, err
}
