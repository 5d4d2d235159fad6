package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of the last path element for ext. Names
// without one, dot files included, get ext appended.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir, name := filepath.Split(path)
	if lastDot := strings.LastIndex(name, "."); lastDot > 0 {
		name = name[:lastDot]
	}
	return dir + name + dotted(ext)
}

// EnsureExt returns the base name of name ending in ext. Directory parts are
// dropped so the result is safe to offer as a download name, and an empty
// name yields fallback. A name whose extension is one of replace gets ext
// instead of it; any other extension is kept and ext appended.
func EnsureExt(name, ext, fallback string, replace ...string) string {
	ext = dotted(ext)

	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name != "" {
		name = filepath.Base(name)
	}
	if name == "" || name == "." || name == "/" {
		name = fallback
	}
	if ext == "" {
		return name
	}

	current := strings.ToLower(filepath.Ext(name))
	if current == strings.ToLower(ext) {
		return name
	}
	for _, r := range replace {
		if current == strings.ToLower(dotted(r)) {
			return ReplaceExt(name, ext)
		}
	}
	return name + ext
}

func dotted(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
