package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotDir writes named JSON snapshots into a directory.
type SnapshotDir struct {
	root string
}

// NewSnapshotDir returns a SnapshotDir rooted at root, creating it if needed.
func NewSnapshotDir(root string) (*SnapshotDir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &SnapshotDir{root: root}, nil
}

// Path returns the full path of the snapshot called name.
func (d *SnapshotDir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// WriteSnapshot encodes v as JSON and writes it to name, replacing any
// previous snapshot. Map keys are written in sorted order.
func (d *SnapshotDir) WriteSnapshot(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(d.Path(name), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

