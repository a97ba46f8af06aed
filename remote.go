package plinder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	// Register the gs:// and s3:// schemes used by published releases.
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

// RemoteObject describes one object in the remote snapshot tree.
type RemoteObject struct {
	// Rel is the object's path relative to the snapshot root, using
	// forward slashes.
	Rel string

	// Size is the object size in bytes.
	Size int64
}

// Remote abstracts the object store holding a dataset snapshot.
// Implemented by the afs-backed remote for production and by in-memory
// fakes in tests. All paths are relative to the snapshot root
// (<bucket>/<release>/<iteration>).
type Remote interface {
	// Exists reports whether the object at rel exists.
	Exists(ctx context.Context, rel string) (bool, error)

	// Open returns a reader over the object at rel.
	Open(ctx context.Context, rel string) (io.ReadCloser, error)

	// List returns all objects under rel, recursively. An empty rel
	// lists the whole snapshot.
	List(ctx context.Context, rel string) ([]RemoteObject, error)
}

// afsRemote implements Remote on top of github.com/viant/afs, which
// resolves gs://, s3://, file:// and mem:// URLs through one interface.
type afsRemote struct {
	// fs is the abstract file-storage service.
	fs afs.Service

	// baseURL is the snapshot root URI without a trailing slash.
	baseURL string
}

// NewRemote returns a Remote reading from the given snapshot root URI,
// e.g. "gs://plinder/2024-06/v2".
func NewRemote(baseURL string) Remote {
	return &afsRemote{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// objectURL resolves a snapshot-relative path to a full URL.
func (r *afsRemote) objectURL(rel string) string {
	if rel == "" {
		return r.baseURL
	}
	return url.Join(r.baseURL, rel)
}

// Exists reports whether the object at rel exists.
func (r *afsRemote) Exists(ctx context.Context, rel string) (bool, error) {
	ok, err := r.fs.Exists(ctx, r.objectURL(rel))
	if err != nil {
		return false, fmt.Errorf("%w: checking %s: %v", ErrRemoteFetch, rel, err)
	}
	return ok, nil
}

// Open returns a reader over the object at rel.
func (r *afsRemote) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	reader, err := r.fs.OpenURL(ctx, r.objectURL(rel))
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrRemoteFetch, rel, err)
	}
	return reader, nil
}

// List returns all objects under rel, walking directories recursively.
func (r *afsRemote) List(ctx context.Context, rel string) ([]RemoteObject, error) {
	var objects []RemoteObject
	if err := r.list(ctx, rel, &objects); err != nil {
		return nil, err
	}
	return objects, nil
}

func (r *afsRemote) list(ctx context.Context, rel string, out *[]RemoteObject) error {
	location := r.objectURL(rel)
	entries, err := r.fs.List(ctx, location)
	if err != nil {
		return fmt.Errorf("%w: listing %s: %v", ErrRemoteFetch, rel, err)
	}

	for _, entry := range entries {
		// Listings include the queried location itself; skip it to
		// avoid infinite recursion.
		if strings.TrimRight(entry.URL(), "/") == strings.TrimRight(location, "/") {
			continue
		}

		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}

		if entry.IsDir() {
			if err := r.list(ctx, childRel, out); err != nil {
				return err
			}
			continue
		}

		*out = append(*out, RemoteObject{Rel: childRel, Size: entry.Size()})
	}

	return nil
}

// Ensure afsRemote implements Remote.
var _ Remote = (*afsRemote)(nil)
