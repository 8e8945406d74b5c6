package storage

import (
	"context"
	"testing"

	"github.com/emodiary/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutBackend(t *testing.T) {
	backend, err := New(context.Background(), config.StorageConfig{Backend: config.StorageBackendNone})
	assert.Nil(t, backend)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp")
}

func TestNewMinioClientValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinioConfig
		want string
	}{
		{name: "endpoint", cfg: config.MinioConfig{}, want: "endpoint"},
		{name: "keys", cfg: config.MinioConfig{Endpoint: "localhost:9000"}, want: "access key"},
		{name: "bucket", cfg: config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, want: "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinioClient(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewGCSClientRequiresBucket(t *testing.T) {
	_, err := NewGCSClient(context.Background(), config.GCSConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestObjectContentDisposition(t *testing.T) {
	assert.Empty(t, Object{Key: "exports/1/a.json"}.ContentDisposition())
	assert.Equal(t, "attachment; filename=diary.json", Object{DownloadName: "diary.json"}.ContentDisposition())
	assert.Equal(t, `attachment; filename="my diary.json"`, Object{DownloadName: "my diary.json"}.ContentDisposition())
}
