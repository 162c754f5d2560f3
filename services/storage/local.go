// Package storagesvc implements core.ObjectStorage.
package storagesvc

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var errInvalidKey = errors.New("invalid object key")

// localStorage stores files on disk; the API serves them under the configured base URL.
type localStorage struct {
	dir     string
	baseURL string
}

var _ core.ObjectStorage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) *localStorage {
	dir := conf.Storage.LocalDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	return &localStorage{dir: dir, baseURL: conf.Storage.BaseURL}
}

// Dir is the root directory of the stored files.
func (s *localStorage) Dir() string { return s.dir }

func (s *localStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key || strings.HasPrefix(clean, "..") {
		return "", errInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *localStorage) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	fp, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return errors.Wrap(err, "creating directory")
	}

	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return errors.Wrap(err, "writing file")
	}
	return errors.Wrap(f.Close(), "closing file")
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	fp, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

func (s *localStorage) PublicURL(key string) string {
	return publicURL(s.baseURL, "/media", key)
}

func publicURL(baseURL, fallback, key string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = fallback
	}
	return base + "/" + strings.TrimLeft(key, "/")
}
