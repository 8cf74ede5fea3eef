package store

import "sync"

// FingerprintCache holds prefix digests keyed by video id for the process
// lifetime. Concurrent first-time requests for the same id may race and
// recompute; the result is identical so last write wins.
type FingerprintCache struct {
	mu      sync.RWMutex
	digests map[string]string
}

func NewFingerprintCache() *FingerprintCache {
	return &FingerprintCache{digests: make(map[string]string)}
}

func (fc *FingerprintCache) Get(videoID string) (string, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	digest, ok := fc.digests[videoID]
	return digest, ok
}

func (fc *FingerprintCache) Put(videoID, digest string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.digests[videoID] = digest
}

func (fc *FingerprintCache) Delete(videoID string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	delete(fc.digests, videoID)
}
