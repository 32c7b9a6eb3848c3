package jpsxdec

import (
	"context"
	"fmt"
	"strings"

	"psxinstall/internal/procexec"
	"psxinstall/internal/services"
)

// Decoder is the set of jPSXdec operations the installer relies on.
type Decoder interface {
	Index(ctx context.Context, source, index string, opts procexec.Options) (procexec.Result, error)
	ExtractFiles(ctx context.Context, index, outputDir, selector string, opts procexec.Options) (procexec.Result, error)
	DecodeVideo(ctx context.Context, index, outputDir string, opts procexec.Options) (procexec.Result, error)
	DecodeAudio(ctx context.Context, index, outputDir string, opts procexec.Options) (procexec.Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(runner procexec.Runner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// Client invokes jPSXdec through a Java runtime.
type Client struct {
	java   string
	jar    string
	runner procexec.Runner
}

// New constructs a jPSXdec client.
func New(java, jar string, opts ...Option) (*Client, error) {
	java = strings.TrimSpace(java)
	jar = strings.TrimSpace(jar)
	if java == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jpsxdec", "new", "java binary required", nil)
	}
	if jar == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jpsxdec", "new", "jpsxdec jar required", nil)
	}
	client := &Client{java: java, jar: jar, runner: procexec.NewExecutor()}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Index scans source and writes an index file describing its contents.
func (c *Client) Index(ctx context.Context, source, index string, opts procexec.Options) (procexec.Result, error) {
	return c.run(ctx, "index", opts, "-f", source, "-x", index)
}

// ExtractFiles copies the entries matching selector out of an indexed image.
func (c *Client) ExtractFiles(ctx context.Context, index, outputDir, selector string, opts procexec.Options) (procexec.Result, error) {
	return c.run(ctx, "extract", opts, "-x", index, "-dir", outputDir, "-a", selector)
}

// DecodeVideo renders every indexed video item to MJPEG AVI.
func (c *Client) DecodeVideo(ctx context.Context, index, outputDir string, opts procexec.Options) (procexec.Result, error) {
	return c.run(ctx, "video", opts,
		"-x", index,
		"-a", "video",
		"-quality", "psx",
		"-vf", "avi:mjpg",
		"-up", "Lanczos3",
		"-dir", outputDir,
	)
}

// DecodeAudio renders every indexed audio item to WAV.
func (c *Client) DecodeAudio(ctx context.Context, index, outputDir string, opts procexec.Options) (procexec.Result, error) {
	return c.run(ctx, "audio", opts,
		"-x", index,
		"-a", "audio",
		"-quality", "psx",
		"-af", "wav",
		"-dir", outputDir,
	)
}

func (c *Client) run(ctx context.Context, operation string, opts procexec.Options, args ...string) (procexec.Result, error) {
	full := make([]string, 0, len(args)+2)
	full = append(full, "-jar", c.jar)
	full = append(full, args...)
	result, err := c.runner.Run(ctx, c.java, full, opts)
	if err != nil {
		return result, fmt.Errorf("jpsxdec %s: %w", operation, err)
	}
	return result, nil
}
