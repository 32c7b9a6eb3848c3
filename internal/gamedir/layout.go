package gamedir

import (
	"os"
	"path/filepath"

	"psxinstall/internal/config"
)

const (
	// FMVDirName holds the streamed cutscenes converted in parallel.
	FMVDirName = "FMV"
	// XADirName holds the streamed audio converted serially.
	XADirName = "XA"
	// DiscIndexName is the transient index written while extracting a disc.
	DiscIndexName = "disc_index.idx"
)

// installMarkers must all exist for the game to count as installed.
var installMarkers = []string{
	"FRONTEND.BIN",
	filepath.Join("LEVELS", "NY.D2L"),
}

// Layout is the set of paths one install operates on.
type Layout struct {
	ResourceDir string
	DataDir     string
	GameDir     string
	ToolJar     string
	Manifest    string
}

// FromConfig builds a Layout from normalized configuration.
func FromConfig(cfg *config.Config) Layout {
	return Layout{
		ResourceDir: cfg.Paths.ResourceDir,
		DataDir:     cfg.Paths.DataDir,
		GameDir:     cfg.Paths.GameDir,
		ToolJar:     cfg.Paths.ToolJar,
		Manifest:    cfg.Paths.Manifest,
	}
}

// FMVDir returns the primary media directory.
func (l Layout) FMVDir() string { return filepath.Join(l.GameDir, FMVDirName) }

// XADir returns the secondary media directory.
func (l Layout) XADir() string { return filepath.Join(l.GameDir, XADirName) }

// DiscIndex returns the path of the transient disc index file.
func (l Layout) DiscIndex() string { return filepath.Join(l.DataDir, DiscIndexName) }

// Installed reports whether every install marker exists under GameDir.
func (l Layout) Installed() bool {
	if l.GameDir == "" {
		return false
	}
	for _, marker := range installMarkers {
		info, err := os.Stat(filepath.Join(l.GameDir, marker))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// MissingMarkers lists the install markers that are absent, for diagnostics.
func (l Layout) MissingMarkers() []string {
	var missing []string
	for _, marker := range installMarkers {
		if _, err := os.Stat(filepath.Join(l.GameDir, marker)); err != nil {
			missing = append(missing, filepath.ToSlash(marker))
		}
	}
	return missing
}
