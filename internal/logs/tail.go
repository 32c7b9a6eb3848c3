package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions selects which lines Tail returns. A negative Offset reads the
// last Limit lines; otherwise lines after Offset are returned.
type TailOptions struct {
	Offset int64
	Limit  int
	// Follow waits up to Wait for new lines when none are available.
	Follow bool
	Wait   time.Duration
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat transcript: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("transcript path %q is a directory", path)
	}

	wait := opts.Wait
	if !opts.Follow || wait < 0 {
		wait = 0
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or replaced; start over from the end.
			offset = info.Size()
		}
		result, err = linesAfter(path, offset)
	}
	if err != nil || len(result.Lines) > 0 || wait == 0 {
		return result, err
	}
	return pollLines(ctx, path, result.Offset, wait)
}

// lastLines keeps a ring of the final limit lines. A limit of zero returns
// only the end offset.
func lastLines(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek transcript: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	ring := make([]string, 0, limit)
	next := 0
	var read int64
	err = scanLines(file, func(line string, n int64) {
		read += n
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[next] = line
		next = (next + 1) % limit
	})
	if err != nil {
		return TailResult{}, err
	}

	lines := append(append([]string(nil), ring[next:]...), ring[:next]...)
	return TailResult{Lines: lines, Offset: read}, nil
}

func linesAfter(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek transcript: %w", err)
	}
	result := TailResult{Offset: offset}
	err = scanLines(file, func(line string, n int64) {
		result.Lines = append(result.Lines, line)
		result.Offset += n
	})
	return result, err
}

// scanLines calls fn for each complete line with the bytes it consumed. A
// trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(line string, n int64)) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, err := reader.ReadString('\n')
		if err == nil {
			if len(raw) > maxLineBytes {
				return fmt.Errorf("read transcript: line exceeds %d bytes", maxLineBytes)
			}
			line := raw[:len(raw)-1]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			fn(line, int64(len(raw)))
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read transcript: %w", err)
	}
}

func pollLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
		result, err := linesAfter(path, offset)
		if err != nil || len(result.Lines) > 0 {
			return result, err
		}
		if time.Now().After(deadline) {
			return result, nil
		}
	}
}
