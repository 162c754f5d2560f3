package core

import (
	"context"
	"io"
	"time"
)

type (
	// ObjectStorage stores uploaded files and serves them under a public URL.
	ObjectStorage interface {
		Upload(ctx context.Context, key string, r io.Reader, contentType string) error
		Delete(ctx context.Context, key string) error
		PublicURL(key string) string
	}

	// Cache is a small key/value store for values that may be recomputed at will.
	Cache interface {
		// Get decodes the cached value into dst; ok is false on a miss.
		Get(ctx context.Context, key string, dst interface{}) (ok bool, err error)
		Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
		Delete(ctx context.Context, keys ...string) error
	}

	// FunctionInvoker calls remote (serverless) functions by name with a JSON payload.
	FunctionInvoker interface {
		Invoke(ctx context.Context, name string, payload interface{}, result interface{}) error
	}
)
