package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching serialized page results.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates a cache key for one page's analysis result. The key
// covers the exact page bytes and the backend that produced the result, so
// switching backends or re-extracting a changed page never serves stale
// findings.
func PageKey(pageBytes []byte, backend string) string {
	h := sha256.New()
	h.Write(pageBytes)
	h.Write([]byte{0})
	h.Write([]byte(backend))
	return "textaudit:v1:" + hex.EncodeToString(h.Sum(nil))
}
