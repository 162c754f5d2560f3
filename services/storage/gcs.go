package storagesvc

import (
	"context"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/elimu/core"
)

type gcsStorage struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

var _ core.ObjectStorage = (*gcsStorage)(nil)

// NewGCSStorage stores files in a Google Cloud Storage bucket. Credentials are found the usual way
// (GOOGLE_APPLICATION_CREDENTIALS, metadata server) unless opts say otherwise.
func NewGCSStorage(ctx context.Context, conf *core.Config, opts ...option.ClientOption) (*gcsStorage, error) {
	if conf.Storage.Bucket == "" {
		return nil, errors.New("storage bucket not configured")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &gcsStorage{client: client, bucket: conf.Storage.Bucket, baseURL: conf.Storage.BaseURL}, nil
}

func (s *gcsStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	return errors.Wrap(w.Close(), "closing object writer")
}

func (s *gcsStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return errors.Wrap(err, "deleting object")
}

// PublicURL uses the configured base URL (e.g. a CDN) when it is absolute.
func (s *gcsStorage) PublicURL(key string) string {
	base := s.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = ""
	}
	return publicURL(base, "https://storage.googleapis.com/"+s.bucket, key)
}

func (s *gcsStorage) Close() error {
	return s.client.Close()
}
