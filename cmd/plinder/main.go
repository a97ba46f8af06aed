// Command plinder downloads and lazily accesses the PLINDER dataset.
//
// Configuration is read from the environment:
//   - PLINDER_MOUNT: local mount directory (optional)
//   - PLINDER_BUCKET: remote bucket root (optional)
//   - PLINDER_RELEASE / PLINDER_ITERATION: snapshot selection (optional)
//   - PLINDER_OFFLINE: disable remote fetches (optional)
package main

import (
	"errors"
	"fmt"
	"os"

	plinder "github.com/DreRnc/plinder-fork"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error or user abort.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid arguments or configuration.
	ExitInvalidArgs = 2

	// ExitNotMaterialized indicates the asset has no local copy.
	ExitNotMaterialized = 3

	// ExitOfflineMiss indicates a cache miss in offline mode.
	ExitOfflineMiss = 4

	// ExitRemoteFetch indicates a network or object-store failure.
	ExitRemoteFetch = 5

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 6
)

func main() {
	cfg, err := plinder.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitInvalidArgs)
	}

	cmd := plinder.NewCommand(cfg)
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, plinder.ErrInvalidRequest):
		return ExitInvalidArgs
	case errors.Is(err, plinder.ErrConfig):
		return ExitInvalidArgs
	case errors.Is(err, plinder.ErrNotMaterialized):
		return ExitNotMaterialized
	case errors.Is(err, plinder.ErrOfflineMiss):
		return ExitOfflineMiss
	case errors.Is(err, plinder.ErrRemoteFetch):
		return ExitRemoteFetch
	case errors.Is(err, plinder.ErrStorage):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
