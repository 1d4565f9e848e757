package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"preflight/internal/adapters/storage/gdrive"
	"preflight/internal/adapters/storage/localfs"
)

// Config selects and configures the export storage provider.
type Config struct {
	// Provider is "localfs" (default) or "gdrive".
	Provider  string
	LocalRoot string

	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string
}

func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "localfs":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("localfs storage requires a root directory")
		}
		return localfs.New(cfg.LocalRoot), nil
	case "gdrive":
		return newGDriveProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

func newGDriveProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.GDriveClientID == "" || cfg.GDriveClientSecret == "" || cfg.GDriveRefreshToken == "" {
		return nil, fmt.Errorf("gdrive storage requires client id, client secret and refresh token")
	}

	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	httpClient := conf.Client(ctx, &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken})

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}
