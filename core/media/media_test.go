package media

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

// 1x1 transparent GIF
var gifData = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type memStorage struct {
	files map[string][]byte
}

func (s *memStorage) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[key] = data
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	delete(s.files, key)
	return nil
}

func (s *memStorage) PublicURL(key string) string { return "https://cdn.test/" + key }

type avatarSetter struct {
	urls map[string]string
}

func (a *avatarSetter) SetAvatar(_ context.Context, id, avatarURL string) (user.User, error) {
	a.urls[id] = avatarURL
	return user.User{Model: core.Model{ID: id}, AvatarURL: avatarURL}, nil
}

func newTestService(maxSize int64) (*Service, *memStorage, *avatarSetter) {
	conf := core.NewTestConfig()
	conf.Storage.MaxUploadSize = maxSize
	storage := &memStorage{files: make(map[string][]byte)}
	users := &avatarSetter{urls: make(map[string]string)}
	return NewService(storage, users, conf), storage, users
}

func TestUpload(t *testing.T) {
	svc, storage, _ := newTestService(1024)

	up, err := svc.Upload(context.Background(), "Courses", "pixel.GIF", bytes.NewReader(gifData))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Key, "courses/"))
	assert.True(t, strings.HasSuffix(up.Key, ".gif"))
	assert.Equal(t, "image/gif", up.ContentType)
	assert.Equal(t, int64(len(gifData)), up.Size)
	assert.Equal(t, "https://cdn.test/"+up.Key, up.URL)
	assert.Equal(t, gifData, storage.files[up.Key])
}

func TestUploadErrors(t *testing.T) {
	svc, storage, _ := newTestService(int64(len(gifData)))

	tests := []struct {
		name   string
		folder string
		data   []byte
		field  string
	}{
		{"not an image", "", []byte("hello world"), "file"},
		{"empty", "", nil, "file"},
		{"too large", "", append(append([]byte{}, gifData...), 0), "file"},
		{"bad folder", "../etc", gifData, "folder"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.folder, "f", bytes.NewReader(tc.data))
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}
	assert.Empty(t, storage.files)
}

func TestSetAvatar(t *testing.T) {
	svc, storage, users := newTestService(1024)
	usr := user.User{Model: core.Model{ID: core.NewID()}}

	updated, err := svc.SetAvatar(context.Background(), usr, "me.gif", bytes.NewReader(gifData))
	require.NoError(t, err)
	assert.Equal(t, users.urls[usr.ID], updated.AvatarURL)
	assert.True(t, strings.HasPrefix(updated.AvatarURL, "https://cdn.test/avatars/"))
	assert.Len(t, storage.files, 1)
}
