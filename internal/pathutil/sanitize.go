// Package pathutil provides path string helpers shared by every hotfs backend.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrForbidden is returned when a path would escape its root.
var ErrForbidden = errors.New("path escapes root")

// Clean normalizes a rooted path and rejects traversal above "/".
// The input is always interpreted relative to a virtual root, so "/etc"
// and "etc" both clean to "/etc".
func Clean(path string) (string, error) {
	if path == "" {
		return "/", nil
	}

	// Walk the raw segments first; filepath.Clean would silently clamp
	// "/../x" to "/x".
	depth := 0
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return "", ErrForbidden
			}
		default:
			depth++
		}
	}

	return filepath.ToSlash(filepath.Clean("/" + strings.TrimPrefix(path, "/"))), nil
}

// SafeJoin safely joins a root path with a relative path, ensuring
// the result stays within the root directory boundary.
// Returns an error if the path would escape the root.
func SafeJoin(root, rel string) (string, error) {
	cleanRoot := filepath.Clean(root)

	cleanRel, err := Clean(rel)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(cleanRoot, strings.TrimPrefix(cleanRel, "/"))

	realRoot := cleanRoot
	if r, err := filepath.EvalSymlinks(cleanRoot); err == nil {
		realRoot = r
	}

	// Resolve symlinks so a link inside the root cannot point outside it.
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// The target may not exist yet; check the closest parent instead.
		dir := filepath.Dir(joined)
		if dir != cleanRoot {
			if resolvedDir, dirErr := filepath.EvalSymlinks(dir); dirErr == nil {
				if !within(realRoot, resolvedDir) {
					return "", ErrForbidden
				}
			}
		}
		if !within(cleanRoot, joined) {
			return "", ErrForbidden
		}
	} else if !within(realRoot, resolved) {
		return "", ErrForbidden
	}

	return joined, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidatePath performs comprehensive path validation for security.
// It checks for common attack patterns and ensures the path is safe to use.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Null bytes can be used to bypass extension checks
	if strings.Contains(path, "\x00") {
		return ErrForbidden
	}

	for _, char := range path {
		if char < 32 && char != '\t' {
			return ErrForbidden
		}
	}

	_, err := Clean(path)
	return err
}
