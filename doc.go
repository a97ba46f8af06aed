// Package plinder provides lazy, cache-transparent access to the PLINDER
// protein-ligand interaction dataset.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Client interface - Applications can use New
//     to create a Client that materializes dataset assets on demand,
//     fetching them from the remote bucket on first access and serving
//     them from the local mount thereafter.
//
//  2. Embeddable CLI via NewCommand - Parent CLI tools can attach a
//     complete command tree to their Cobra root command, providing
//     commands like "plinder download", "plinder get", etc.
//
// # Thread Safety
//
// The Client interface is fully thread-safe. Concurrent materializations
// of the same asset are serialized so that at most one remote fetch is in
// flight per asset, and the write-to-temp-then-rename protocol guarantees
// that readers never observe a partially written file.
//
// # Storage
//
// Assets are stored under a per-user mount directory:
//   - Linux: $XDG_DATA_HOME/plinder/ or ~/.local/share/plinder/
//   - macOS: ~/Library/Application Support/plinder/
//   - Windows: %APPDATA%\plinder\
//
// Within the mount, assets are laid out as <release>/<iteration>/<path>.
// The mount location can be overridden via the PLINDER_MOUNT environment
// variable; see LoadConfig for the full set of recognized variables.
//
// # Offline Mode
//
// When PLINDER_OFFLINE is set, only locally cached assets are usable and
// any cache miss fails with ErrOfflineMiss without touching the network.
package plinder
