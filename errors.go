package plinder

import "errors"

// Sentinel errors for dataset access operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrConfig indicates the configuration could not be resolved,
	// typically because the mount directory could not be created.
	ErrConfig = errors.New("plinder: invalid configuration")

	// ErrInvalidRequest indicates a malformed asset path, e.g. one
	// containing traversal components or an absolute path.
	ErrInvalidRequest = errors.New("plinder: invalid asset request")

	// ErrOfflineMiss indicates the requested asset is absent locally
	// while offline mode is enabled. Recoverable by switching modes or
	// pre-downloading the release.
	ErrOfflineMiss = errors.New("plinder: asset not cached in offline mode")

	// ErrRemoteFetch indicates a network or object-store failure during
	// a fetch. The fetch is not retried internally; callers may retry.
	ErrRemoteFetch = errors.New("plinder: remote fetch failed")

	// ErrNotMaterialized indicates the asset has no local copy.
	ErrNotMaterialized = errors.New("plinder: asset not materialized")

	// ErrStorage indicates a local filesystem operation failed.
	ErrStorage = errors.New("plinder: storage error")
)
