package convert

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Class distinguishes the two media classes.
type Class int

const (
	Primary Class = iota
	Secondary
)

func (c Class) String() string {
	switch c {
	case Primary:
		return "fmv"
	case Secondary:
		return "xa"
	default:
		return "unknown"
	}
}

// Job is one discovered media file.
type Job struct {
	Source    string
	Index     string
	OutputDir string
	Class     Class
}

// NewJob derives the index path and output directory for source.
func NewJob(source string, class Class) Job {
	return Job{
		Source:    source,
		Index:     strings.TrimSuffix(source, filepath.Ext(source)) + ".idx",
		OutputDir: filepath.Dir(source),
		Class:     class,
	}
}

// Name returns the source file name.
func (j Job) Name() string { return filepath.Base(j.Source) }

// BaseName returns the source file name without its extension.
func (j Job) BaseName() string {
	name := j.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Discover walks dir recursively and returns files whose extension matches
// ext case-insensitively, in lexical walk order. A missing dir yields nil.
func Discover(dir, ext string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// isCompanionWAV reports whether name is a WAV byproduct of the source with
// base name base, e.g. RENDER0.STR[0.0].wav for RENDER0. The character after
// the base must be '.' or '[' so RENDER1 never claims RENDER10's files.
func isCompanionWAV(name, base string) bool {
	if base == "" || !strings.EqualFold(filepath.Ext(name), ".wav") {
		return false
	}
	if !strings.HasPrefix(name, base) {
		return false
	}
	rest := name[len(base):]
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "[")
}

// Counters track one phase's progress across concurrent workers. Completed
// never exceeds Total and Succeeded never exceeds Completed.
type Counters struct {
	total     int64
	completed atomic.Int64
	succeeded atomic.Int64
}

// NewCounters returns counters for total jobs.
func NewCounters(total int) *Counters {
	return &Counters{total: int64(total)}
}

// Complete records one finished job and returns the new completed count.
func (c *Counters) Complete(success bool) int64 {
	if success {
		c.succeeded.Add(1)
	}
	return c.completed.Add(1)
}

// Total returns the number of jobs in the phase.
func (c *Counters) Total() int { return int(c.total) }

// Completed returns the number of jobs that have finished, successful or not.
func (c *Counters) Completed() int { return int(c.completed.Load()) }

// Succeeded returns the number of jobs that converted fully.
func (c *Counters) Succeeded() int { return int(c.succeeded.Load()) }

// Fraction returns completed/total, or 1 when there is nothing to do.
func (c *Counters) Fraction() float64 {
	if c.total == 0 {
		return 1
	}
	return float64(c.completed.Load()) / float64(c.total)
}
