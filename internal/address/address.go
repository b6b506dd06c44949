// Package address implements the DSON URL addressing scheme.
//
// A DSON URL names an asset inside a content library:
//
//	node_name:/data/Vendor/Product/File.dsf#asset_id?property/path
//
// Every component except one of (file path, asset id) is optional. The
// file path is always relative to a registered content root. Parsing is
// pure and does no I/O.
package address

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrMalformed is returned for URLs that cannot be parsed.
var ErrMalformed = errors.New("malformed asset URL")

// AssetURL wraps the components of a DSON-formatted URL.
//
// Two URLs denote the same asset iff their normalized components are
// equal. Path comparison is byte-for-byte; case-folding is left to the
// backing filesystem of the content root that eventually resolves the
// path.
type AssetURL struct {
	// NodeName is the optional scheme-style prefix ("hip:" in
	// "hip:/data/figure.dsf#hip"). Used by modifier formulas to target a
	// scene node rather than a library asset.
	NodeName string

	// FilePath is the root-relative path to the document, normalized to
	// forward slashes with a leading slash. Empty for fragment-only URLs
	// ("#id"), which refer to the document currently being parsed.
	FilePath string

	// AssetID is the fragment naming one library entry. Empty means the
	// whole document.
	AssetID string

	// PropertyPath holds the pre-split tokens of the optional
	// "?property/path" suffix. DSON puts the query after the fragment.
	PropertyPath []string
}

// Parse accepts a DSON-formatted URL string and returns its components.
// Backslash separators are tolerated and percent-escapes are decoded.
// Fragments containing path separators and paths escaping the content
// root are rejected with ErrMalformed.
func Parse(raw string) (AssetURL, error) {
	if strings.TrimSpace(raw) == "" {
		return AssetURL{}, fmt.Errorf("%w: empty string", ErrMalformed)
	}

	s := strings.ReplaceAll(raw, `\`, "/")

	var u AssetURL

	// A colon before any separator or fragment marker is a node-name
	// scheme. net/url mangles these (lowercases, rejects underscores), so
	// split it off by hand the way the format expects.
	if i := strings.IndexByte(s, ':'); i >= 0 && i < len(s) {
		if j := strings.IndexAny(s, "/#"); j < 0 || i < j {
			name, err := url.PathUnescape(s[:i])
			if err != nil {
				return AssetURL{}, fmt.Errorf("%w: node name %q: %v", ErrMalformed, s[:i], err)
			}
			u.NodeName = name
			s = s[i+1:]
		}
	}

	rest := s
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		frag := rest[i+1:]
		rest = rest[:i]

		// DSON-specific quirk: the query follows the fragment.
		if j := strings.IndexByte(frag, '?'); j >= 0 {
			prop, err := url.PathUnescape(frag[j+1:])
			if err != nil {
				return AssetURL{}, fmt.Errorf("%w: property path %q: %v", ErrMalformed, frag[j+1:], err)
			}
			if prop != "" {
				u.PropertyPath = strings.Split(prop, "/")
			}
			frag = frag[:j]
		}

		id, err := url.PathUnescape(frag)
		if err != nil {
			return AssetURL{}, fmt.Errorf("%w: fragment %q: %v", ErrMalformed, frag, err)
		}
		if strings.ContainsRune(id, '/') {
			return AssetURL{}, fmt.Errorf("%w: fragment %q contains path separator", ErrMalformed, id)
		}
		u.AssetID = id
	} else if j := strings.IndexByte(rest, '?'); j >= 0 {
		// No fragment: the property path anchors at the document root.
		prop, err := url.PathUnescape(rest[j+1:])
		if err != nil {
			return AssetURL{}, fmt.Errorf("%w: property path %q: %v", ErrMalformed, rest[j+1:], err)
		}
		if prop != "" {
			u.PropertyPath = strings.Split(prop, "/")
		}
		rest = rest[:j]
	}

	if rest != "" {
		p, err := url.PathUnescape(rest)
		if err != nil {
			return AssetURL{}, fmt.Errorf("%w: path %q: %v", ErrMalformed, rest, err)
		}
		// Check for escapes before rooting: Clean on a rooted path would
		// silently discard leading ".." elements.
		if c := path.Clean(strings.TrimPrefix(p, "/")); c == ".." || strings.HasPrefix(c, "../") {
			return AssetURL{}, fmt.Errorf("%w: path %q escapes content root", ErrMalformed, p)
		}
		u.FilePath = path.Clean("/" + p)
	}

	if u.FilePath == "" && u.AssetID == "" {
		return AssetURL{}, fmt.Errorf("%w: %q has neither file path nor fragment", ErrMalformed, raw)
	}

	return u, nil
}

// String reassembles the URL with percent-escaped components. The result
// of String round-trips through Parse to an equal AssetURL.
func (u AssetURL) String() string {
	var b strings.Builder
	if u.NodeName != "" {
		b.WriteString(url.PathEscape(u.NodeName))
		b.WriteByte(':')
	}
	b.WriteString(escapePath(u.FilePath))
	if u.AssetID != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(u.AssetID))
	}
	if len(u.PropertyPath) > 0 {
		b.WriteByte('?')
		b.WriteString(escapePath(strings.Join(u.PropertyPath, "/")))
	}
	return b.String()
}

// Equal reports whether two URLs name the same asset.
func (u AssetURL) Equal(other AssetURL) bool {
	if u.NodeName != other.NodeName || u.FilePath != other.FilePath || u.AssetID != other.AssetID {
		return false
	}
	if len(u.PropertyPath) != len(other.PropertyPath) {
		return false
	}
	for i := range u.PropertyPath {
		if u.PropertyPath[i] != other.PropertyPath[i] {
			return false
		}
	}
	return true
}

// HasFilePath reports whether the URL names a document, as opposed to a
// fragment-only reference into the file being parsed.
func (u AssetURL) HasFilePath() bool { return u.FilePath != "" }

// HasFragment reports whether the URL names a specific library entry.
func (u AssetURL) HasFragment() bool { return u.AssetID != "" }

// WithFilePath returns a copy of u addressing the same fragment inside
// filePath. Used to anchor fragment-only references to their document.
func (u AssetURL) WithFilePath(filePath string) AssetURL {
	u.FilePath = filePath
	return u
}

// escapePath percent-escapes a slash-separated path one segment at a
// time, preserving the separators themselves.
func escapePath(p string) string {
	if p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
