package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// transcriptStamp is the UTC timestamp prefix of transcript file names.
const transcriptStamp = "20060102T150405"

// ErrNoTranscript is returned when no transcript matches a lookup.
var ErrNoTranscript = errors.New("no run transcript found")

// TranscriptInfo describes one transcript file named
// <timestamp>-<kind>-<short id>.log.
type TranscriptInfo struct {
	Path    string
	Kind    string
	ShortID string
	Started time.Time
}

// ParseTranscriptName splits a transcript file name into its parts.
func ParseTranscriptName(name string) (TranscriptInfo, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".log")
	if base == filepath.Base(name) {
		return TranscriptInfo{}, false
	}
	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return TranscriptInfo{}, false
	}
	started, err := time.Parse(transcriptStamp, parts[0])
	if err != nil {
		return TranscriptInfo{}, false
	}
	return TranscriptInfo{Path: name, Kind: parts[1], ShortID: parts[2], Started: started}, true
}

// ListTranscripts returns the transcripts in dir, newest first. A missing
// directory yields an empty list.
func ListTranscripts(dir string) ([]TranscriptInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transcript directory: %w", err)
	}
	var out []TranscriptInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := ParseTranscriptName(filepath.Join(dir, entry.Name()))
		if ok {
			out = append(out, info)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.After(out[j].Started)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// FindTranscript returns the newest transcript whose run ID matches runID.
// Full IDs and short prefixes both match. An empty runID selects the newest
// transcript.
func FindTranscript(dir, runID string) (TranscriptInfo, error) {
	all, err := ListTranscripts(dir)
	if err != nil {
		return TranscriptInfo{}, err
	}
	runID = strings.ToLower(strings.TrimSpace(runID))
	for _, info := range all {
		if runID == "" || strings.HasPrefix(runID, info.ShortID) || strings.HasPrefix(info.ShortID, runID) {
			return info, nil
		}
	}
	if runID == "" {
		return TranscriptInfo{}, ErrNoTranscript
	}
	return TranscriptInfo{}, fmt.Errorf("%w for run %s", ErrNoTranscript, runID)
}
