package scanner

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// FindBinary locates an engine binary using the following search order:
// 1. Custom path (if provided)
// 2. $PATH lookup
// Returns the path to the binary or an error if not found.
func FindBinary(name, customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("custom %s path not found: %s", name, customPath)
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s binary not found in PATH", name)
}

// BinaryVersion runs the binary with the given args and parses the output
// into a bare version string (e.g., "8.18.0"). Returns an empty string when
// the probe fails; version is informational only.
func BinaryVersion(binaryPath string, args ...string) string {
	cmd := exec.Command(binaryPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	version := strings.TrimSpace(string(output))
	if lines := strings.Split(version, "\n"); len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}
	version = strings.TrimPrefix(version, "version ")
	version = strings.TrimPrefix(version, "v")

	return version
}
