// Package security holds filesystem guards for user-supplied paths.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates the resolved path would leave the report directory.
	ErrPathEscape = errors.New("path escapes report directory")
	// ErrEmptyPath is returned for an empty report file name.
	ErrEmptyPath = errors.New("report path is empty")
)

// ReportPath returns the absolute location of a report file. When dir is
// set, relative names are placed under it and absolute names must already
// lie inside it.
func ReportPath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPath
	}
	if dir == "" {
		return filepath.Abs(name)
	}

	base, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve report directory: %w", err)
	}
	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("relativize report path: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// EnsureParent creates the directory that will hold path.
func EnsureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	return nil
}
