package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"hlsladder/internal/config"
	"hlsladder/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputRoot verifies an output directory, or the nearest existing
// ancestor when the directory will be created on demand.
func CheckOutputRoot(path string) Result {
	const name = "Output directory"
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			result := CheckDirectoryAccess(name, current)
			if result.Passed && current != filepath.Clean(path) {
				result.Detail = fmt.Sprintf("%s (will be created under %s)", path, current)
			}
			return result
		}
		parent := filepath.Dir(current)
		if parent == current {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		current = parent
	}
}

// CheckSystemDeps evaluates the external binaries required for a conversion.
// Both convert and doctor use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for source inspection",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for rendition transcoding",
		},
	}
	return deps.CheckBinaries(requirements)
}
