package reset

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"strings"

	"psxinstall/internal/services"
)

// Manifest is the immutable set of paths that survive a reset.
type Manifest struct {
	entries map[string]struct{}
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, services.WithUserMessage(
			services.Wrap(services.ErrManifestUnavailable, "reset", "load manifest", path, err),
			"Reset failed: Could not load GitHub file list.",
		)
	}
	m := ParseManifest(data)
	if m.Len() == 0 {
		return Manifest{}, services.WithUserMessage(
			services.Wrap(services.ErrManifestUnavailable, "reset", "load manifest", path+" lists no files", nil),
			"Reset failed: GitHub file list is empty.",
		)
	}
	return m, nil
}

// ParseManifest builds a manifest from newline-delimited paths. Blank lines
// are skipped; CRLF endings, surrounding spaces and a leading "./" are ignored.
func ParseManifest(data []byte) Manifest {
	m := Manifest{entries: make(map[string]struct{})}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if entry := normalizeEntry(scanner.Text()); entry != "" {
			m.entries[entry] = struct{}{}
		}
	}
	return m
}

// Contains reports whether rel, a slash-separated path, is in the baseline.
func (m Manifest) Contains(rel string) bool {
	_, ok := m.entries[normalizeEntry(rel)]
	return ok
}

// Len returns the number of entries.
func (m Manifest) Len() int { return len(m.entries) }

func normalizeEntry(raw string) string {
	entry := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if entry == "" {
		return ""
	}
	entry = strings.TrimPrefix(entry, "./")
	if entry == "" {
		return ""
	}
	return path.Clean(entry)
}
