package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"psxinstall/internal/services"
)

const (
	chunkSize     = 4096
	chunkQueueLen = 64
	// captureLimit bounds the stdout/stderr text retained on a Result.
	captureLimit = 64 * 1024
)

// Sink receives streamed output and heuristic progress from a capturing run.
type Sink interface {
	AppendLog(text string)
	AdvanceProgress(delta, ceiling float64)
}

// Options controls a single invocation.
type Options struct {
	// CaptureProgress streams output into Sink while the process runs.
	CaptureProgress bool
	Sink            Sink
	// Classifier defaults to MarkerClassifier.
	Classifier Classifier
	Dir        string
}

// Result is the outcome of one external invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Diagnostic returns the text to show when the run failed.
func (r Result) Diagnostic() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(r.Stdout); msg != "" {
		return lastLine(msg)
	}
	return "unknown error"
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, opts Options) (Result, error)
}

// Executor runs commands with os/exec.
type Executor struct{}

// NewExecutor returns the default Runner.
func NewExecutor() Executor {
	return Executor{}
}

// Run launches binary with args. It returns services.ErrLaunch when the binary
// cannot be resolved or started and services.ErrExternalTool on a non-zero
// exit; the Result is populated in both the success and the tool-failure case.
// A process killed because ctx ended reports an error wrapping ctx.Err().
func (Executor) Run(ctx context.Context, binary string, args []string, opts Options) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "resolve", "executable path is empty", nil)
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "resolve", fmt.Sprintf("executable %q not found", binary), err)
	}

	cmd := exec.CommandContext(ctx, resolved, args...) //nolint:gosec
	cmd.Dir = opts.Dir

	start := time.Now()
	var result Result
	if opts.CaptureProgress {
		result, err = runStreaming(cmd, opts)
	} else {
		result, err = runBuffered(cmd)
	}
	result.Elapsed = time.Since(start)
	if ctxErr := ctx.Err(); ctxErr != nil && !result.Success() {
		return result, services.Wrap(services.ErrExternalTool, "procexec", "wait",
			fmt.Sprintf("%s stopped", binary), ctxErr)
	}
	if err != nil {
		return result, err
	}

	if opts.CaptureProgress && opts.Sink != nil {
		opts.Sink.AppendLog(fmt.Sprintf("Process finished with status: %d", result.ExitCode))
	}
	if !result.Success() {
		return result, services.Wrap(
			services.ErrExternalTool,
			"procexec",
			"exit",
			fmt.Sprintf("%s exited with status %d: %s", binary, result.ExitCode, result.Diagnostic()),
			nil,
		)
	}
	return result, nil
}

func runBuffered(cmd *exec.Cmd) (Result, error) {
	stdout := newTailBuffer(captureLimit)
	stderr := newTailBuffer(captureLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "start", "could not start process", err)
	}
	waitErr := cmd.Wait()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	code, err := exitCode(waitErr)
	result.ExitCode = code
	return result, err
}

type stream int

const (
	streamStdout stream = iota
	streamStderr
)

type chunk struct {
	stream stream
	text   string
}

func runStreaming(cmd *exec.Cmd, opts Options) (Result, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "stdout pipe", "", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "stderr pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, services.Wrap(services.ErrLaunch, "procexec", "start", "could not start process", err)
	}

	classify := opts.Classifier
	if classify == nil {
		classify = MarkerClassifier
	}

	chunks := make(chan chunk, chunkQueueLen)
	var readers sync.WaitGroup
	read := func(r io.Reader, s stream) {
		defer readers.Done()
		buf := make([]byte, chunkSize)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				chunks <- chunk{stream: s, text: string(buf[:n])}
			}
			if readErr != nil {
				return
			}
		}
	}
	readers.Add(2)
	go read(stdoutPipe, streamStdout)
	go read(stderrPipe, streamStderr)
	go func() {
		readers.Wait()
		close(chunks)
	}()

	stdout := newTailBuffer(captureLimit)
	stderr := newTailBuffer(captureLimit)
	for c := range chunks {
		switch c.stream {
		case streamStdout:
			_, _ = stdout.Write([]byte(c.text))
			if opts.Sink != nil {
				opts.Sink.AppendLog(c.text)
				if delta, ok := classify(c.text); ok {
					opts.Sink.AdvanceProgress(delta, HeuristicCeiling)
				}
			}
		case streamStderr:
			_, _ = stderr.Write([]byte(c.text))
			if opts.Sink != nil {
				opts.Sink.AppendLog("STDERR: " + c.text)
			}
		}
	}

	waitErr := cmd.Wait()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	code, err := exitCode(waitErr)
	result.ExitCode = code
	return result, err
}

func exitCode(waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return -1, nil
	}
	return -1, services.Wrap(services.ErrExternalTool, "procexec", "wait", "", waitErr)
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

// tailBuffer keeps the trailing limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   bytes.Buffer
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
