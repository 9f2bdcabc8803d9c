// Package fs implements the blob read contract over a local directory of
// published dataset files.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rankcore/internal/blob/core"
)

// Store implements core.Store on a local directory. Keys map to relative
// file paths under the root; files are served as-is, so operators can drop
// agency CSV exports into the directory without any companion metadata.
type Store struct {
	root string
}

var _ core.Store = (*Store)(nil)

// New returns a filesystem-backed blob store rooted at path. The directory
// must already exist; a read-only store never creates it.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("blob root %s: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("blob root %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// sanitizeKey ensures key doesn't escape root and forbids path traversal and absolute paths.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, k), nil
}

func (s *Store) infoFor(key string, st fs.FileInfo) core.Info {
	return core.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentTypeFor(key),
		ETag:         fmt.Sprintf("%x-%x", st.ModTime().UTC().UnixNano(), st.Size()),
		LastModified: st.ModTime().UTC(),
		URL:          s.localURL(key),
	}
}

// Get implements core.Store.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, nil, core.NotFoundError{Key: key}
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	return s.infoFor(key, st), file, nil
}

// Head implements core.Store.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, core.NotFoundError{Key: key}
	}
	if err != nil {
		return core.Info{}, err
	}
	if st.IsDir() {
		return core.Info{}, core.NotFoundError{Key: key}
	}
	return s.infoFor(key, st), nil
}

// List implements core.Store. Keys are relative slash paths sorted
// ascending.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, s.infoFor(key, st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL implements core.Store. Local development convenience: returns
// a pseudo URL, no auth.
func (s *Store) PresignURL(ctx context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if _, err := sanitizeKey(key); err != nil {
		return "", err
	}
	return s.localURL(key), nil
}

func (s *Store) localURL(key string) string {
	// Stable opaque URL; clients can detect dev by scheme host.
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func contentTypeFor(key string) string {
	switch ext := strings.ToLower(filepath.Ext(key)); ext {
	case ".csv":
		return "text/csv"
	default:
		return mime.TypeByExtension(ext)
	}
}
