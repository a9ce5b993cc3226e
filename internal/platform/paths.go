package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizeRoot returns the absolute, cleaned form of a local root
func NormalizeRoot(path string) (string, error) {
	if IsUNCPath(path) {
		return filepath.Clean(path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// SameRoot reports whether a and b name the same local directory or file.
// Windows paths compare case-insensitively.
func SameRoot(a, b string) bool {
	na, errA := NormalizeRoot(a)
	nb, errB := NormalizeRoot(b)
	if errA != nil || errB != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(na, nb)
	}
	return na == nb
}

// ValidateRoot checks if a local root is usable on the current platform
func ValidateRoot(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	if runtime.GOOS == "windows" && !IsUNCPath(path) {
		rest := strings.TrimPrefix(path, filepath.VolumeName(path))
		for _, char := range []string{"<", ">", ":", "\"", "|", "?", "*"} {
			if strings.Contains(rest, char) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
