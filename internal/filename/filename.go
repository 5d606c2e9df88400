// Package filename resolves and sanitizes download output filenames:
// caller-provided output first, then the URL path, then a guaranteed
// fallback, with a later upgrade opportunity from response headers when
// the name was auto-derived.
package filename

import (
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/vfaronov/httpheader"
)

// invalidChars are characters unsafe in filenames on at least one common
// filesystem; 0x00-0x1F control bytes are handled separately below.
const invalidChars = `<>:"/\|?*`

// Sanitize replaces filesystem-hostile characters and trims stray dots and
// spaces. An empty result falls back to "download".
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20:
			b.WriteByte('_')
		case strings.ContainsRune(invalidChars, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "download"
	}
	return out
}

// Resolved is the outcome of resolving an output path for a request.
type Resolved struct {
	Output    string
	Name      string
	AutoNamed bool
}

// Resolve implements the §4.2 priority order: caller output verbatim, else a
// URL-derived name accepted only if it looks like a real filename, else a
// guaranteed fallback (sanitized last path segment, host, or "download").
func Resolve(rawURL, callerOutput string) Resolved {
	if callerOutput != "" {
		return Resolved{Output: callerOutput, Name: filepath.Base(callerOutput), AutoNamed: false}
	}

	if name, ok := fromURLPath(rawURL); ok {
		return Resolved{Output: name, Name: name, AutoNamed: true}
	}

	name := fallbackName(rawURL)
	return Resolved{Output: name, Name: name, AutoNamed: true}
}

// fromURLPath accepts the last non-empty path segment only when it looks
// like a real filename: contains a dot, doesn't start with one, and the
// extension is 1-10 characters.
func fromURLPath(rawURL string) (string, bool) {
	seg, ok := lastPathSegment(rawURL)
	if !ok {
		return "", false
	}
	if !strings.Contains(seg, ".") || strings.HasPrefix(seg, ".") {
		return "", false
	}
	ext := seg[strings.LastIndex(seg, ".")+1:]
	if ext == "" || len(ext) > 10 {
		return "", false
	}
	return Sanitize(seg), true
}

// fallbackName derives a filename guaranteed to be non-empty: the last path
// segment (sanitized), else the host without port, else "download".
func fallbackName(rawURL string) string {
	if seg, ok := lastPathSegment(rawURL); ok {
		if s := Sanitize(seg); s != "" {
			return s
		}
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if s := Sanitize(host); s != "" {
			return s
		}
	}
	return "download"
}

func lastPathSegment(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	decoded, err := url.PathUnescape(u.Path)
	if err != nil {
		decoded = u.Path
	}
	trimmed := strings.TrimRight(decoded, "/")
	if trimmed == "" {
		return "", false
	}
	seg := path.Base(trimmed)
	if seg == "" || seg == "." || seg == "/" {
		return "", false
	}
	return seg, true
}

// UpgradeFromHeaders implements the probe-time filename upgrade of §4.2: if
// the response carries a usable Content-Disposition filename, replace only
// the final path component of output, preserving any parent directory the
// caller implied. It does not check whether the task was auto-named; the
// caller only invokes it for auto-named tasks.
//
// It is a pure function of (currentOutput, headers), safe to call at most
// twice (once per probe attempt) since equal headers produce equal output.
func UpgradeFromHeaders(currentOutput string, header http.Header) (newOutput string, newName string, upgraded bool) {
	_, disposition, err := httpheader.ContentDisposition(header)
	if err != nil || disposition == "" {
		return currentOutput, filepath.Base(currentOutput), false
	}

	sanitized := Sanitize(disposition)
	if sanitized == "" {
		return currentOutput, filepath.Base(currentOutput), false
	}

	dir := filepath.Dir(currentOutput)
	var out string
	if dir == "." || dir == "" {
		out = sanitized
	} else {
		out = filepath.Join(dir, sanitized)
	}
	return out, sanitized, true
}
