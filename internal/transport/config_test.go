package transport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/usercache/internal/config"
)

func TestFromConfig_File(t *testing.T) {
	dir := t.TempDir()
	tr, err := FromConfig(context.Background(), config.TransportConfig{
		Kind: config.TransportFile,
		File: config.FileTransport{Dir: dir},
	})
	require.NoError(t, err)

	f, ok := tr.(*File)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "outbox"), f.Outbox())
}

func TestFromConfig_None(t *testing.T) {
	_, err := FromConfig(context.Background(), config.TransportConfig{Kind: config.TransportNone})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFromConfig_Unknown(t *testing.T) {
	_, err := FromConfig(context.Background(), config.TransportConfig{Kind: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport kind")
}

func TestFromConfig_S3RequiresBucket(t *testing.T) {
	_, err := FromConfig(context.Background(), config.TransportConfig{Kind: config.TransportS3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}
