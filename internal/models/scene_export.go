package models

import "time"

// SceneExport is a catalogued scene export document held in storage.
type SceneExport struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	FileName  string     `json:"file_name"`
	Format    string     `json:"format"`
	ObjectKey string     `json:"object_key"`
	Provider  string     `json:"provider"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
