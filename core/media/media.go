// Package media stores uploaded images in the object storage.
package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const (
	DefaultFolder = "images"
	AvatarsFolder = "avatars"

	sniffLen = 512
)

var (
	errNotAnImage    = errors.New("only images can be uploaded")
	errTooLarge      = errors.New("the file is too large")
	errEmptyFile     = errors.New("the file is empty")
	errInvalidFolder = errors.New("invalid folder name")

	folderRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	extensions = map[string]string{
		"image/jpeg":   ".jpg",
		"image/png":    ".png",
		"image/gif":    ".gif",
		"image/webp":   ".webp",
		"image/bmp":    ".bmp",
		"image/x-icon": ".ico",
	}
)

type (
	// Upload describes a stored file.
	Upload struct {
		Key         string `json:"key"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
	}

	AvatarSetter interface {
		SetAvatar(ctx context.Context, id, avatarURL string) (user.User, error)
	}

	Service struct {
		storage core.ObjectStorage
		users   AvatarSetter
		maxSize int64
	}
)

func NewService(storage core.ObjectStorage, users AvatarSetter, conf *core.Config) *Service {
	return &Service{storage: storage, users: users, maxSize: conf.Storage.MaxUploadSize}
}

func fileError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
}

// readImage reads r fully, enforcing the size limit, and detects the image type from its content.
func (svc *Service) readImage(r io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	limit := svc.maxSize
	if limit <= 0 {
		limit = 5 << 20
	}
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "reading file")
	}
	if n == 0 {
		return nil, "", fileError(errEmptyFile)
	}
	if n > limit {
		return nil, "", fileError(errTooLarge)
	}

	data := buf.Bytes()
	sniff := data
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	contentType := http.DetectContentType(sniff)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fileError(errNotAnImage)
	}
	return data, contentType, nil
}

func extension(contentType, filename string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

// Upload stores an image under <folder>/<uuid><ext> and returns its public URL.
func (svc *Service) Upload(ctx context.Context, folder, filename string, r io.Reader) (Upload, error) {
	folder = core.CleanString(folder, true /* lower */)
	if folder == "" {
		folder = DefaultFolder
	}
	if !folderRegex.MatchString(folder) {
		return Upload{}, core.NewValidationError(errInvalidFolder, core.FieldError{Field: "folder", Error: errInvalidFolder.Error()})
	}

	data, contentType, err := svc.readImage(r)
	if err != nil {
		return Upload{}, err
	}
	key := path.Join(folder, core.NewID()+extension(contentType, filename))
	if err = svc.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return Upload{}, errors.Wrap(err, "uploading file")
	}
	return Upload{Key: key, URL: svc.storage.PublicURL(key), ContentType: contentType, Size: int64(len(data))}, nil
}

// SetAvatar uploads the user's new avatar and saves its URL on the user.
func (svc *Service) SetAvatar(ctx context.Context, usr user.User, filename string, r io.Reader) (user.User, error) {
	up, err := svc.Upload(ctx, AvatarsFolder, filename, r)
	if err != nil {
		return usr, err
	}
	updated, err := svc.users.SetAvatar(ctx, usr.ID, up.URL)
	if err != nil {
		// do not leave an orphan file behind
		_ = svc.storage.Delete(ctx, up.Key)
		return usr, errors.Wrap(err, "setting avatar")
	}
	return updated, nil
}
