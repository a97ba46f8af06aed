package plinder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Dataset iterates over a fixed list of system IDs. Each Get is a
// self-contained materialization: there is no cursor state, so items
// can be fetched in any order, repeatedly, and from multiple
// goroutines.
type Dataset struct {
	c   Client
	ids []string
}

// NewDataset creates a dataset over the given system IDs.
func NewDataset(c Client, ids []string) *Dataset {
	return &Dataset{c: c, ids: ids}
}

// NewDatasetFromFile creates a dataset from a file listing one system
// ID per line. A leading "system_id" header line (as written by index
// exports) is skipped, and only the first comma-separated column of
// each line is used.
func NewDatasetFromFile(c Client, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening id list %s: %v", ErrStorage, path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line, _, _ := strings.Cut(strings.TrimSpace(scanner.Text()), ",")
		if first {
			first = false
			if line == "system_id" {
				continue
			}
		}
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading id list %s: %v", ErrStorage, path, err)
	}

	return &Dataset{c: c, ids: ids}, nil
}

// Len returns the number of systems in the dataset.
func (d *Dataset) Len() int {
	return len(d.ids)
}

// IDs returns the system IDs in the dataset.
func (d *Dataset) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Get materializes the i-th system and returns its accessor. The
// system directory is guaranteed to exist locally on return.
func (d *Dataset) Get(ctx context.Context, i int) (*System, error) {
	if i < 0 || i >= len(d.ids) {
		return nil, fmt.Errorf("%w: dataset index %d out of range [0, %d)", ErrInvalidRequest, i, len(d.ids))
	}

	sys, err := d.c.System(d.ids[i])
	if err != nil {
		return nil, err
	}
	if _, err := sys.Dir(ctx); err != nil {
		return nil, err
	}
	return sys, nil
}
