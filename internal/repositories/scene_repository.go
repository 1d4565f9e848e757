package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"preflight/internal/httpkit"
	"preflight/internal/models"
)

var ErrSceneNotFound = errors.New("scene export not found")
var ErrSceneExists = errors.New("scene export id already exists")

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const sceneExportsDDL = `
CREATE TABLE IF NOT EXISTS scene_exports (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	format      TEXT NOT NULL,
	object_key  TEXT NOT NULL,
	provider    TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
)`

type SceneRepository struct {
	db DB
}

func NewSceneRepository(db DB) *SceneRepository {
	return &SceneRepository{db: db}
}

// EnsureSchema creates the catalog table when missing.
func (r *SceneRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, sceneExportsDDL)
	return err
}

func (r *SceneRepository) Create(ctx context.Context, s *models.SceneExport) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO scene_exports (id, name, file_name, format, object_key, provider)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, s.ID, s.Name, s.FileName, s.Format, s.ObjectKey, s.Provider).Scan(&s.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return ErrSceneExists
		}
		return err
	}
	return nil
}

// List returns live exports, newest first. A missing table reads as an empty catalog.
func (r *SceneRepository) List(ctx context.Context) ([]models.SceneExport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, file_name, format, object_key, provider, created_at
		FROM scene_exports
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		if httpkit.IsUndefinedTable(err) {
			return []models.SceneExport{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := []models.SceneExport{}
	for rows.Next() {
		var s models.SceneExport
		if err := rows.Scan(&s.ID, &s.Name, &s.FileName, &s.Format, &s.ObjectKey, &s.Provider, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns a live export.
func (r *SceneRepository) Get(ctx context.Context, id string) (*models.SceneExport, error) {
	var s models.SceneExport
	err := r.db.QueryRow(ctx, `
		SELECT id, name, file_name, format, object_key, provider, created_at, deleted_at
		FROM scene_exports
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(
		&s.ID,
		&s.Name,
		&s.FileName,
		&s.Format,
		&s.ObjectKey,
		&s.Provider,
		&s.CreatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || httpkit.IsUndefinedTable(err) {
			return nil, ErrSceneNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete soft-deletes an export.
func (r *SceneRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE scene_exports
		SET deleted_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSceneNotFound
	}
	return nil
}
