package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"preflight/internal/pkg/logger"
	"preflight/internal/preflight"
	"preflight/internal/storage"
)

// LoadRules reads the engine options shared by every entrypoint.
func LoadRules() (preflight.Options, error) {
	var errs []error

	tie, err := preflight.ParseTieBreak(Env("PREFLIGHT_TIE_BREAK", ""))
	if err != nil {
		errs = append(errs, fmt.Errorf("PREFLIGHT_TIE_BREAK: %w", err))
	}

	rules := preflight.DefaultRuleOptions()
	rules.PixelAspectLimit, err = FloatEnv("PREFLIGHT_PIXEL_ASPECT_LIMIT", rules.PixelAspectLimit)
	if err != nil {
		errs = append(errs, err)
	} else if rules.PixelAspectLimit <= 0 {
		errs = append(errs, fmt.Errorf("PREFLIGHT_PIXEL_ASPECT_LIMIT: must be positive"))
	}
	rules.CryptoMaterialAOV = Env("PREFLIGHT_CRYPTO_MATERIAL_AOV", rules.CryptoMaterialAOV)
	rules.CryptoObjectAOV = Env("PREFLIGHT_CRYPTO_OBJECT_AOV", rules.CryptoObjectAOV)

	var disabled []preflight.Category
	for _, name := range CSVEnv("PREFLIGHT_DISABLED_RULES") {
		c, err := preflight.ParseCategory(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("PREFLIGHT_DISABLED_RULES: %w", err))
			continue
		}
		disabled = append(disabled, c)
	}

	if err := errors.Join(errs...); err != nil {
		return preflight.Options{}, err
	}
	return preflight.Options{
		TieBreak: tie,
		Rules:    rules,
		Disabled: disabled,
		Parallel: BoolEnv("PREFLIGHT_PARALLEL", false),
	}, nil
}

// Shared holds the settings common to the API and the worker.
type Shared struct {
	DatabaseURL string
	RedisAddr   string
	QueueName   string
	ReportTTL   time.Duration
	Storage     storage.Config
	Rules       preflight.Options
	Log         logger.Config
}

// API is the configuration of cmd/api.
type API struct {
	Shared
	HTTPPort       string
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// Worker is the configuration of cmd/worker.
type Worker struct {
	Shared
	// PopTimeout bounds each blocking queue read so shutdown is noticed.
	PopTimeout time.Duration
}

func LoadAPI() (API, error) {
	shared, errs := loadShared("preflight-api")

	timeout, err := DurationEnv("HTTP_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return API{}, err
	}
	return API{
		Shared:         shared,
		HTTPPort:       Env("HTTP_PORT", "8080"),
		RequestTimeout: timeout,
		CORSOrigins:    CSVEnv("CORS_ALLOWED_ORIGINS"),
	}, nil
}

func LoadWorker() (Worker, error) {
	shared, errs := loadShared("preflight-worker")

	pop, err := DurationEnv("PREFLIGHT_POP_TIMEOUT", 5*time.Second)
	if err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Worker{}, err
	}
	return Worker{Shared: shared, PopTimeout: pop}, nil
}

func loadShared(service string) (Shared, []error) {
	var errs []error

	var missing []string
	require := func(k string) string {
		v := Env(k, "")
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	s := Shared{
		DatabaseURL: require("DATABASE_URL"),
		RedisAddr:   require("REDIS_ADDR"),
		QueueName:   Env("PREFLIGHT_QUEUE_NAME", "preflight:requests"),
		Storage: storage.Config{
			Provider:           Env("STORAGE_PROVIDER", "localfs"),
			LocalRoot:          Env("STORAGE_LOCAL_ROOT", "/data"),
			GDriveClientID:     Env("GDRIVE_CLIENT_ID", ""),
			GDriveClientSecret: Env("GDRIVE_CLIENT_SECRET", ""),
			GDriveRefreshToken: Env("GDRIVE_REFRESH_TOKEN", ""),
			GDriveFolderID:     Env("GDRIVE_FOLDER_ID", ""),
		},
		Log: logger.DefaultConfig(),
	}
	if Env("SERVICE_NAME", "") == "" {
		s.Log.ServiceName = service
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing env: %s", strings.Join(missing, ", ")))
	}

	ttl, err := DurationEnv("PREFLIGHT_REPORT_TTL", time.Hour)
	if err != nil {
		errs = append(errs, err)
	}
	s.ReportTTL = ttl

	rules, err := LoadRules()
	if err != nil {
		errs = append(errs, err)
	}
	s.Rules = rules

	return s, errs
}
