// Package ffmpeg detects the external transcoding tool. Presence changes
// which format selectors are safe to request (separate streams need a
// merge step) and which response warnings are attached.
package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Capability is the probe result, computed once per request and threaded
// explicitly through the pipeline.
type Capability struct {
	Available bool
	Dir       string
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

func wellKnownDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin"}
	default:
		return []string{"/usr/bin", "/usr/local/bin"}
	}
}

// Probe checks well-known install directories first, then the executable
// search path. Cheap relative to network-bound extraction, so it is not
// cached.
func Probe() Capability {
	name := binaryName()
	for _, dir := range wellKnownDirs() {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return Capability{Available: true, Dir: dir}
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return Capability{Available: true, Dir: filepath.Dir(path)}
	}
	return Capability{}
}

// Version returns the first line of `ffmpeg -version`, or "" when the
// tool is missing or unresponsive.
func Version(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binaryName(), "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
