package plinder

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// System is a lazy accessor over a single system's assets. Every
// accessor routes through the client's materializer, so a System works
// identically whether its files are already on disk or still remote.
//
// System assets live under systems/<code>/<id>/ in the snapshot, where
// <code> is the two-character shard derived from the system's PDB ID.
// Shards are published as systems/<code>.zip bundles; the bundle is
// materialized and unpacked on first access.
type System struct {
	c    *client
	id   string
	code string
}

// System returns a lazy accessor for the given system ID, e.g.
// "4jvn__1__1.A__1.B".
func (c *client) System(id string) (*System, error) {
	code, err := shardCode(id)
	if err != nil {
		return nil, err
	}
	return &System{c: c, id: id, code: code}, nil
}

// ID returns the system identifier.
func (s *System) ID() string {
	return s.id
}

// shardCode validates a system ID and derives its two-character shard
// from the PDB ID (the segment before the first "__").
func shardCode(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: system id %q", ErrInvalidRequest, id)
	}
	pdbID, _, _ := strings.Cut(id, "__")
	if len(pdbID) < 4 {
		return "", fmt.Errorf("%w: system id %q has no pdb id", ErrInvalidRequest, id)
	}
	return pdbID[len(pdbID)-3 : len(pdbID)-1], nil
}

// Dir ensures the system's directory exists locally, materializing and
// unpacking the shard bundle if necessary, and returns its path.
func (s *System) Dir(ctx context.Context) (string, error) {
	shardDir := filepath.Join(s.c.cfg.rootDir(), "systems", s.code)
	dir := filepath.Join(shardDir, s.id)

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}

	archive, err := s.c.Materialize(ctx, "systems/"+s.code+".zip")
	if err != nil {
		return "", err
	}
	if err := unpackArchive(archive, shardDir); err != nil {
		return "", err
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: system %s not present in shard %s", ErrNotMaterialized, s.id, s.code)
	}
	return dir, nil
}

// asset returns the path of one file within the system directory,
// failing with ErrNotMaterialized if the unpacked bundle lacks it.
func (s *System) asset(ctx context.Context, name string) (string, error) {
	dir, err := s.Dir(ctx)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, filepath.FromSlash(name))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s/%s", ErrNotMaterialized, s.id, name)
	}
	return p, nil
}

// SystemCIF returns the path to the system.cif file.
func (s *System) SystemCIF(ctx context.Context) (string, error) {
	return s.asset(ctx, "system.cif")
}

// ReceptorCIF returns the path to the receptor.cif file.
func (s *System) ReceptorCIF(ctx context.Context) (string, error) {
	return s.asset(ctx, "receptor.cif")
}

// ReceptorPDB returns the path to the receptor.pdb file.
func (s *System) ReceptorPDB(ctx context.Context) (string, error) {
	return s.asset(ctx, "receptor.pdb")
}

// Sequences returns the path to the sequences.fasta file.
func (s *System) Sequences(ctx context.Context) (string, error) {
	return s.asset(ctx, "sequences.fasta")
}

// Ligands returns a map of ligand names to paths of ligand sdf files.
func (s *System) Ligands(ctx context.Context) (map[string]string, error) {
	dir, err := s.Dir(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "ligand_files", "*.sdf"))
	if err != nil {
		return nil, fmt.Errorf("%w: listing ligands for %s: %v", ErrStorage, s.id, err)
	}

	ligands := make(map[string]string, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), ".sdf")
		ligands[name] = m
	}
	return ligands, nil
}

// ChainMapping returns the parsed chain_mapping.json metadata.
func (s *System) ChainMapping(ctx context.Context) (map[string]any, error) {
	return s.jsonAsset(ctx, "chain_mapping.json")
}

// WaterMapping returns the parsed water_mapping.json metadata.
func (s *System) WaterMapping(ctx context.Context) (map[string]any, error) {
	return s.jsonAsset(ctx, "water_mapping.json")
}

func (s *System) jsonAsset(ctx context.Context, name string) (map[string]any, error) {
	p, err := s.asset(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, name, err)
	}
	var mapping map[string]any
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w: parsing %s for %s: %v", ErrStorage, name, s.id, err)
	}
	return mapping, nil
}

// Structures returns the paths of all files in the system directory.
func (s *System) Structures(ctx context.Context) ([]string, error) {
	dir, err := s.Dir(ctx)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking %s: %v", ErrStorage, s.id, err)
	}
	return paths, nil
}

// NumProteins returns the number of protein chains encoded in the
// system ID, or 0 if the ID has no chain segment.
func (s *System) NumProteins() int {
	parts := strings.Split(s.id, "__")
	if len(parts) < 3 {
		return 0
	}
	return len(strings.Split(parts[2], "_"))
}
