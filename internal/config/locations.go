package config

import (
	"fmt"
	"path/filepath"
)

// Locations is the resolved on-disk layout the store operates on. It is
// computed once from configuration and passed explicitly into constructors;
// there is no process-wide cached singleton.
type Locations struct {
	// DataDir is the absolute directory holding everything below.
	DataDir string

	// TasksFile is the absolute path of the snapshot file.
	TasksFile string

	// MemoryDir is the absolute path of the archive/backup area.
	MemoryDir string
}

// ResolveLocations computes the absolute layout from the store section,
// anchoring relative paths at baseDir (the config file's directory, or the
// working directory when running on defaults).
func ResolveLocations(cfg StoreConfig, baseDir string) (Locations, error) {
	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(baseDir, dataDir)
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return Locations{}, fmt.Errorf("resolving data dir %q: %w", cfg.DataDir, err)
	}
	return Locations{
		DataDir:   abs,
		TasksFile: filepath.Join(abs, cfg.TasksFile),
		MemoryDir: filepath.Join(abs, cfg.MemoryDir),
	}, nil
}

// SnapshotName returns the snapshot file name relative to DataDir, the form
// the history recorder stages it by.
func (l Locations) SnapshotName() string {
	return filepath.Base(l.TasksFile)
}
