package preflight

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"psxinstall/internal/deps"
	"psxinstall/internal/services"
)

const gib = 1 << 30

// CheckJava verifies that the Java runtime resolves.
func CheckJava(binary string) Result {
	const name = "Java"
	status := deps.CheckBinaries([]deps.Requirement{deps.JavaRequirement(binary)})[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail, Marker: services.ErrLaunch}
	}
	return Result{Name: name, Passed: true, Detail: status.Resolved}
}

// CheckToolJar verifies that the decoder jar exists and is a regular file.
func CheckToolJar(path string) Result {
	const name = "jPSXdec"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "tool_jar not configured", Marker: services.ErrConfiguration}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path), Marker: services.ErrPrecondition}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err), Marker: services.ErrPrecondition}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path), Marker: services.ErrPrecondition}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path), Marker: services.ErrPrecondition}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err), Marker: services.ErrPrecondition}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path), Marker: services.ErrPrecondition}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err), Marker: services.ErrPrecondition}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minGiB available. A floor of zero reports the free space without judging it.
func CheckFreeSpace(name, path string, minGiB int) Result {
	available, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err), Advisory: minGiB <= 0, Marker: services.ErrPrecondition}
	}
	detail := fmt.Sprintf("%s available", humanize.IBytes(available))
	if minGiB <= 0 {
		return Result{Name: name, Passed: true, Detail: detail, Advisory: true}
	}
	if available < uint64(minGiB)*gib {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s, need %s", detail, humanize.IBytes(uint64(minGiB)*gib)),
			Marker: services.ErrPrecondition,
		}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckManifest reports whether the reset baseline is readable. It is
// advisory: only reset needs it, and reset refuses on its own.
func CheckManifest(path string) Result {
	const name = "Reset manifest"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (unavailable: reset disabled)", path), Advisory: true}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, humanize.IBytes(uint64(info.Size()))), Advisory: true}
}

// FreeBytes returns the bytes available to unprivileged users on the
// filesystem that holds path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs: %w", err)
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
