package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/realtime"
	"github.com/imi6/dandan/internal/store"
	"github.com/imi6/dandan/internal/testutil"
)

func newTestHashService() (*HashService, *store.FingerprintCache) {
	cache := store.NewFingerprintCache()
	hub := realtime.NewHub(&testutil.MockLogger{}, testutil.NewMockMetrics())
	svc := NewHashService(cache, hub, &testutil.MockLogger{})
	return svc.(*HashService), cache
}

func TestComputePrefixDigest_SmallFile(t *testing.T) {
	svc, _ := newTestHashService()
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	digest, err := svc.ComputePrefixDigest(path)

	require.NoError(t, err)
	// md5("hello world")
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", digest)
}

func TestComputePrefixDigest_OnlyHashesPrefix(t *testing.T) {
	svc, _ := newTestHashService()
	path := filepath.Join(t.TempDir(), "big.mp4")

	content := make([]byte, PrefixBytes+4096)
	for i := range content {
		content[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	digest, err := svc.ComputePrefixDigest(path)
	require.NoError(t, err)

	sum := md5.Sum(content[:PrefixBytes])
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
}

func TestComputePrefixDigest_MissingFile(t *testing.T) {
	svc, _ := newTestHashService()

	_, err := svc.ComputePrefixDigest(filepath.Join(t.TempDir(), "nope.mp4"))

	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDigestForVideo_CachesResult(t *testing.T) {
	svc, cache := newTestHashService()
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	digest, err := svc.DigestForVideo(context.Background(), "vid-1", path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", digest)

	cached, ok := cache.Get("vid-1")
	require.True(t, ok)
	assert.Equal(t, digest, cached)

	// The file is gone, so a second call can only succeed via the cache.
	require.NoError(t, os.Remove(path))
	digest, err = svc.DigestForVideo(context.Background(), "vid-1", path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", digest)
}

func TestDigestForVideo_CancelledContext(t *testing.T) {
	svc, _ := newTestHashService()
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DigestForVideo(ctx, "vid-1", path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedDigest_AndForget(t *testing.T) {
	svc, cache := newTestHashService()
	cache.Put("vid-1", "abc")

	digest, ok := svc.CachedDigest("vid-1")
	require.True(t, ok)
	assert.Equal(t, "abc", digest)

	svc.Forget("vid-1")
	_, ok = svc.CachedDigest("vid-1")
	assert.False(t, ok)
}
