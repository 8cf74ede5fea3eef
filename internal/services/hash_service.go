package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/realtime"
	"github.com/imi6/dandan/internal/store"
)

// PrefixBytes is how much of the file the fingerprint covers. The remote
// matching service hashes the first 16 MiB, so we must too.
const PrefixBytes = 16 * 1024 * 1024

type HashServiceInterface interface {
	ComputePrefixDigest(path string) (string, error)
	DigestForVideo(ctx context.Context, videoID, path string) (string, error)
	DigestAsync(videoID, path string)
	CachedDigest(videoID string) (string, bool)
	Forget(videoID string)
}

// HashService computes MD5 prefix digests and caches them per video id for
// the process lifetime. MD5 is a protocol requirement of the matching
// service, not a security choice.
type HashService struct {
	cache  *store.FingerprintCache
	hub    *realtime.Hub
	logger providers.Logger
}

func NewHashService(cache *store.FingerprintCache, hub *realtime.Hub, logger providers.Logger) HashServiceInterface {
	return &HashService{cache: cache, hub: hub, logger: logger}
}

// ComputePrefixDigest hashes at most PrefixBytes from the start of the
// file. Shorter files are hashed in full.
func (hs *HashService) ComputePrefixDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("file " + path)
		}
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.CopyN(hash, file, PrefixBytes); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// DigestForVideo returns the cached digest or computes and caches it. The
// hash runs in its own goroutine so the caller can be cancelled without
// stalling on disk I/O.
func (hs *HashService) DigestForVideo(ctx context.Context, videoID, path string) (string, error) {
	if digest, ok := hs.cache.Get(videoID); ok {
		return digest, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		digest string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		digest, err := hs.ComputePrefixDigest(path)
		done <- result{digest: digest, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		hs.cache.Put(videoID, res.digest)
		return res.digest, nil
	}
}

// DigestAsync computes in the background, typically kicked off right after
// an upload. Completion is announced on the realtime channel so players can
// start matching without polling.
func (hs *HashService) DigestAsync(videoID, path string) {
	go func() {
		digest, err := hs.ComputePrefixDigest(path)
		if err != nil {
			hs.logger.Errorf(providers.TypeApp, "Background digest of %s failed: %s", videoID, err)
			return
		}
		hs.cache.Put(videoID, digest)
		hs.hub.Broadcast(realtime.Message{
			"type":     "md5_complete",
			"video_id": videoID,
			"md5":      digest,
		})
	}()
}

func (hs *HashService) CachedDigest(videoID string) (string, bool) {
	return hs.cache.Get(videoID)
}

func (hs *HashService) Forget(videoID string) {
	hs.cache.Delete(videoID)
}
