// Package assets builds cache-busting URLs for files under /static/.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"strings"
)

const versionLen = 8

// Resolver maps static file names to URLs carrying a content hash, so browsers
// can cache them for a long time and still pick up new deployments.
type Resolver struct {
	prefix   string
	versions map[string]string
}

// NewResolver hashes every file in fsys. prefix is the URL path the files are
// served from, e.g. "/static/". A nil fsys yields unversioned URLs.
func NewResolver(fsys fs.FS, prefix string) (*Resolver, error) {
	r := &Resolver{prefix: "/" + strings.Trim(prefix, "/") + "/", versions: map[string]string{}}
	if fsys == nil {
		return r, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sum := sha256.Sum256(data)
		r.versions[path] = hex.EncodeToString(sum[:])[:versionLen]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hash static assets: %w", err)
	}
	return r, nil
}

// URL returns the public URL for name, versioned when the file is known.
func (r *Resolver) URL(name string) string {
	name = strings.TrimPrefix(name, "/")
	if r == nil {
		return "/static/" + name
	}
	if v, ok := r.versions[name]; ok {
		return r.prefix + name + "?v=" + v
	}
	return r.prefix + name
}
