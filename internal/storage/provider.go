package storage

import "preflight/internal/ports"

// Provider is the storage contract used across the API and the worker.
type Provider = ports.StorageProvider
