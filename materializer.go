package plinder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// tempInfix marks in-flight transfer files so that cache-hit checks and
// Prune can tell them apart from materialized assets.
const tempInfix = ".partial."

// client is the concrete implementation of the Client interface.
type client struct {
	// cfg holds the resolved dataset configuration.
	cfg Config

	// remote is the object-store client. Nil in offline mode.
	remote Remote

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// fetchTimeout bounds a single remote fetch. Zero means no bound
	// beyond the remote client's own.
	fetchTimeout time.Duration

	// concurrency is the default worker count for bulk downloads.
	concurrency int

	// lockTimeout bounds cross-process lock acquisition.
	lockTimeout time.Duration

	// locks serializes in-process fetches of the same asset.
	locks *pathLocks
}

// Config returns the configuration the client was built with.
func (c *client) Config() Config {
	return c.cfg
}

// Materialize ensures the asset exists locally and returns its path.
func (c *client) Materialize(ctx context.Context, rel string) (string, error) {
	clean, err := validateRequest(rel)
	if err != nil {
		return "", err
	}

	local := c.localPath(clean)
	if materialized(local) {
		return local, nil
	}

	// Serialize same-asset fetches within this process; a second
	// caller blocks here and hits the cache on re-check.
	unlock := c.locks.acquire(clean)
	defer unlock()

	if materialized(local) {
		return local, nil
	}

	if c.cfg.Offline {
		return "", fmt.Errorf("%w: %s", ErrOfflineMiss, clean)
	}

	if err := c.fetchInto(ctx, clean, local, false); err != nil {
		return "", err
	}

	return local, nil
}

// Exists reports whether the asset is available locally or remotely.
func (c *client) Exists(ctx context.Context, rel string) (bool, error) {
	clean, err := validateRequest(rel)
	if err != nil {
		return false, err
	}

	if materialized(c.localPath(clean)) {
		return true, nil
	}

	if c.cfg.Offline {
		return false, nil
	}

	return c.remote.Exists(ctx, clean)
}

// Local resolves the candidate local path without fetching.
func (c *client) Local(rel string) (string, error) {
	clean, err := validateRequest(rel)
	if err != nil {
		return "", err
	}
	return c.localPath(clean), nil
}

// Remove deletes the local copy of an asset.
func (c *client) Remove(rel string) error {
	clean, err := validateRequest(rel)
	if err != nil {
		return err
	}

	local := c.localPath(clean)
	if _, err := os.Stat(local); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotMaterialized, clean)
	}
	if err := os.Remove(local); err != nil {
		return fmt.Errorf("%w: removing %s: %v", ErrStorage, clean, err)
	}
	return nil
}

// Prune removes temporary files abandoned by interrupted fetches.
func (c *client) Prune() (int, error) {
	removed := 0
	err := filepath.WalkDir(c.cfg.rootDir(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.Contains(d.Name(), tempInfix) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("%w: pruning: %v", ErrStorage, err)
	}
	return removed, nil
}

// localPath maps a validated slash-relative asset path to its candidate
// location under <mount>/<release>/<iteration>.
func (c *client) localPath(clean string) string {
	return filepath.Join(c.cfg.rootDir(), filepath.FromSlash(clean))
}

// fetchInto downloads the object at rel into the local candidate path
// using a scoped acquisition: parent directories are created, bytes are
// written to a temporary sibling, and the temporary is atomically
// renamed into place on success. A crash mid-transfer never leaves a
// partial file at the candidate path.
//
// A cross-process advisory lock on a sibling lock file guarantees at
// most one in-flight fetch per asset across processes. When force is
// false the candidate is re-checked after the lock is won, so a fetch
// finished by another process turns into a cache hit.
func (c *client) fetchInto(ctx context.Context, rel, local string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStorage, rel, err)
	}

	lock, err := newFileLock(local+".lock", c.lockTimeout)
	if err != nil {
		return fmt.Errorf("%w: creating fetch lock for %s: %v", ErrStorage, rel, err)
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: another process is fetching %s: %v", ErrStorage, rel, err)
	}
	defer lock.Unlock()

	if !force && materialized(local) {
		return nil
	}

	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	reader, err := c.remote.Open(ctx, rel)
	if err != nil {
		if errors.Is(err, ErrRemoteFetch) {
			return err
		}
		return fmt.Errorf("%w: fetching %s: %v", ErrRemoteFetch, rel, err)
	}
	defer reader.Close()

	tmp := local + tempInfix + randomSuffix()
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", ErrStorage, rel, err)
	}

	written, err := io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: transferring %s: %v", ErrRemoteFetch, rel, err)
	}

	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: renaming temp file for %s: %v", ErrStorage, rel, err)
	}

	if c.logger != nil {
		c.logger.Debug("asset fetched", "path", rel, "bytes", written)
	}

	return nil
}

// materialized reports whether a usable local copy exists at the path.
// A zero-length regular file is treated as a miss and removed, so an
// empty stray never masquerades as a cache hit.
func materialized(local string) bool {
	info, err := os.Stat(local)
	if err != nil || info.IsDir() {
		return false
	}
	if info.Size() == 0 {
		os.Remove(local)
		return false
	}
	return true
}

// validateRequest checks that rel is a well-formed snapshot-relative
// path and returns its cleaned slash form. Traversal components,
// absolute paths, and backslashes are rejected so a request can never
// escape the mount.
func validateRequest(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}
	if strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrInvalidRequest, rel)
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute path %q", ErrInvalidRequest, rel)
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: traversal in %q", ErrInvalidRequest, rel)
	}

	return clean, nil
}

// randomSuffix returns a short random hex string for temp file names,
// so concurrent force-fetches never collide on the same temporary.
func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

// pathLocks hands out one mutex per asset path, so concurrent
// materializations of the same asset serialize while unrelated assets
// proceed independently.
type pathLocks struct {
	// mu protects held.
	mu sync.Mutex

	// held maps asset paths to their lock entries.
	held map[string]*pathLockEntry
}

// pathLockEntry is a refcounted mutex for one asset path.
type pathLockEntry struct {
	mu   sync.Mutex
	refs int
}

// newPathLocks creates an empty lock table.
func newPathLocks() *pathLocks {
	return &pathLocks{held: make(map[string]*pathLockEntry)}
}

// acquire blocks until the lock for key is held and returns the
// corresponding release function. Entries are dropped from the table
// once no caller holds or waits on them.
func (p *pathLocks) acquire(key string) func() {
	p.mu.Lock()
	entry := p.held[key]
	if entry == nil {
		entry = &pathLockEntry{}
		p.held[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.held, key)
		}
		p.mu.Unlock()
	}
}
