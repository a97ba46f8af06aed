package plinder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// seedRemoteTree writes a snapshot tree to a temp directory and returns
// a Remote over it. Plain paths resolve through the file scheme, so the
// production afs-backed implementation is exercised end to end.
func seedRemoteTree(t *testing.T, objects map[string]string) Remote {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range objects {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return NewRemote(dir)
}

func TestAFSRemote(t *testing.T) {
	remote := seedRemoteTree(t, map[string]string{
		"index/annotation_table.parquet": "parquet data",
		"systems/jv.zip":                 "zip data",
		"systems/xy.zip":                 "more zip data",
	})
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		ok, err := remote.Exists(ctx, "systems/jv.zip")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !ok {
			t.Error("Exists() = false for present object")
		}

		ok, err = remote.Exists(ctx, "systems/absent.zip")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists() = true for absent object")
		}
	})

	t.Run("open", func(t *testing.T) {
		rc, err := remote.Open(ctx, "systems/jv.zip")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != "zip data" {
			t.Errorf("Open() content = %q, want %q", data, "zip data")
		}
	})

	t.Run("open absent object", func(t *testing.T) {
		rc, err := remote.Open(ctx, "systems/absent.zip")
		if err == nil {
			rc.Close()
			t.Fatal("Open() succeeded for absent object")
		}
		if !errors.Is(err, ErrRemoteFetch) {
			t.Errorf("Open() error = %v, want ErrRemoteFetch", err)
		}
	})

	t.Run("list recurses into directories", func(t *testing.T) {
		objects, err := remote.List(ctx, "")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}

		var rels []string
		for _, obj := range objects {
			rels = append(rels, obj.Rel)
			if obj.Size <= 0 {
				t.Errorf("object %q has size %d", obj.Rel, obj.Size)
			}
		}
		sort.Strings(rels)

		want := []string{
			"index/annotation_table.parquet",
			"systems/jv.zip",
			"systems/xy.zip",
		}
		if len(rels) != len(want) {
			t.Fatalf("List() = %v, want %v", rels, want)
		}
		for i := range want {
			if rels[i] != want[i] {
				t.Errorf("List()[%d] = %q, want %q", i, rels[i], want[i])
			}
		}
	})

	t.Run("list scoped to a prefix", func(t *testing.T) {
		objects, err := remote.List(ctx, "systems")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(objects) != 2 {
			t.Fatalf("List(systems) returned %d objects, want 2", len(objects))
		}
		for _, obj := range objects {
			if obj.Rel != "systems/jv.zip" && obj.Rel != "systems/xy.zip" {
				t.Errorf("unexpected object %q", obj.Rel)
			}
		}
	})
}
