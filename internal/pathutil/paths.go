package pathutil

import (
	"os"
	"regexp"
	"strings"
)

var repeatedSlashes = regexp.MustCompile(`/+`)

// CleanPath collapses repeated separators ("a//b///c" -> "a/b/c").
func CleanPath(path string) string {
	return repeatedSlashes.ReplaceAllString(path, "/")
}

// Escape percent-escapes literal spaces so the string parses as a URI.
func Escape(path string) string {
	return strings.ReplaceAll(path, " ", "%20")
}

// Unescape reverses Escape.
func Unescape(path string) string {
	return strings.ReplaceAll(path, "%20", " ")
}

// NormalizeDir appends a trailing separator for directories and strips it
// for files. The root path is returned unchanged.
func NormalizeDir(path string, isDir bool) string {
	if path == "" || path == "/" {
		return "/"
	}
	if isDir {
		if strings.HasSuffix(path, "/") {
			return path
		}
		return path + "/"
	}
	return strings.TrimRight(path, "/")
}

// BaseName returns name without the content after its last '.'.
func BaseName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 {
		return name
	}
	return name[:idx]
}

// Extension returns the content of name after its last '.', or "".
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 {
		return ""
	}
	return name[idx+1:]
}

// NameFromPath returns the terminal segment of path. A single trailing
// separator is ignored so directories report their own name.
func NameFromPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

// ParentFromPath returns everything up to and including the last meaningful
// separator. One trailing separator is stripped first; a path without any
// separator is returned as is.
func ParentFromPath(path string) string {
	if path == "/" {
		return path
	}
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[:idx+1]
}

// ParentDir is ParentFromPath without the trailing separator, except for
// the root itself.
func ParentDir(path string) string {
	parent := ParentFromPath(path)
	if parent == "/" {
		return parent
	}
	return strings.TrimSuffix(parent, "/")
}

// Depth counts the non-empty segments of path.
func Depth(path string) int {
	n := 0
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			n++
		}
	}
	return n
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return CleanPath(home + "/" + strings.TrimPrefix(path, "~"))
}
