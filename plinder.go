package plinder

import (
	"context"
)

// Client provides programmatic access to a PLINDER dataset snapshot.
// All methods are safe for concurrent use.
// For CLI integration, use NewCommand instead.
type Client interface {
	// Materialize ensures the asset at the given snapshot-relative path
	// exists locally, fetching it from the remote bucket on a cache
	// miss, and returns its absolute local path.
	// Returns ErrInvalidRequest for malformed paths, ErrOfflineMiss for
	// a cache miss in offline mode, and ErrRemoteFetch when the remote
	// transfer fails.
	Materialize(ctx context.Context, rel string) (string, error)

	// Exists reports whether the asset is available, checking the local
	// mount first and the remote bucket second. In offline mode only
	// the local mount is consulted.
	Exists(ctx context.Context, rel string) (bool, error)

	// Local resolves the asset's candidate local path without fetching.
	// The returned path may not exist yet.
	Local(rel string) (string, error)

	// Remove deletes the local copy of an asset.
	// Returns ErrNotMaterialized if there is no local copy.
	Remove(rel string) error

	// Prune removes temporary files abandoned by interrupted fetches.
	// Returns the number of files removed.
	Prune() (int, error)

	// Download mirrors the remote snapshot tree into the local mount,
	// skipping assets that are already present unless WithForce is
	// given.
	Download(ctx context.Context, opts ...DownloadOption) (DownloadStats, error)

	// System returns a lazy accessor for a single system's assets.
	// Returns ErrInvalidRequest if the system ID is malformed.
	System(id string) (*System, error)

	// Config returns the configuration the client was built with.
	Config() Config
}

// Ensure client implements Client interface.
var _ Client = (*client)(nil)

// New creates a new Client for the given configuration.
// The configuration is validated and the mount directory created; pass
// Options to override the remote client, logger, or fetch behavior.
func New(cfg Config, opts ...Option) (Client, error) {
	cfg.applyDefaults()
	if err := cfg.ensureMount(); err != nil {
		return nil, err
	}

	ccfg := newClientConfig()
	for _, opt := range opts {
		opt(ccfg)
	}

	remote := ccfg.remote
	if remote == nil && !cfg.Offline {
		remote = NewRemote(cfg.remoteRoot())
	}

	return &client{
		cfg:          cfg,
		remote:       remote,
		logger:       ccfg.logger,
		fetchTimeout: ccfg.fetchTimeout,
		concurrency:  ccfg.concurrency,
		lockTimeout:  ccfg.lockTimeout,
		locks:        newPathLocks(),
	}, nil
}
