// Package filestore keeps listing photos on the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
)

// Store implements core.ImageStore under a single directory. All access goes
// through an os.Root so keys cannot escape it.
type Store struct {
	root   *os.Root
	prefix string
}

var _ core.ImageStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	Dir         string // created when missing
	MediaPrefix string // URL prefix objects are served from; default "/media/"
}

// New opens (creating if needed) the storage directory.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("filestore: Dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	root, err := os.OpenRoot(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("open storage dir: %w", err)
	}
	prefix := opts.MediaPrefix
	if prefix == "" {
		prefix = "/media/"
	}
	return &Store{root: root, prefix: prefix}, nil
}

// Close releases the directory handle.
func (s *Store) Close() error { return s.root.Close() }

// Put writes r under obj.Key. Existing objects are never overwritten.
func (s *Store) Put(ctx context.Context, obj core.ObjectInfo, r io.Reader) (string, error) {
	key, err := cleanKey(obj.Key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.mkdirs(path.Dir(key)); err != nil {
		return "", err
	}
	f, err := s.root.OpenFile(key, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.root.Remove(key)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = s.root.Remove(key)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return s.prefix + key, nil
}

// Open returns the object as an *os.File so callers can serve ranges.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, core.ObjectInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, core.ObjectInfo{}, apperrors.NotFound("imagem não encontrada")
	}
	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.ObjectInfo{}, apperrors.NotFound("imagem não encontrada")
		}
		return nil, core.ObjectInfo{}, fmt.Errorf("open %s: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, core.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, core.ObjectInfo{}, apperrors.NotFound("imagem não encontrada")
	}
	info := core.ObjectInfo{
		Key:         key,
		ContentType: mime.TypeByExtension(path.Ext(key)),
		Size:        st.Size(),
		ModTime:     st.ModTime(),
	}
	return f, info, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.root.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) mkdirs(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	cur := ""
	for _, part := range strings.Split(dir, "/") {
		cur = path.Join(cur, part)
		if err := s.root.Mkdir(cur, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create %s: %w", cur, err)
		}
	}
	return nil
}

// cleanKey accepts slash-separated relative keys without dot segments.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	if path.Clean(key) != key || !fs.ValidPath(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key, nil
}
