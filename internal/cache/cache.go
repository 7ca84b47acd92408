package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache defines the byte-level storage layer for cached verdicts
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached verdict schema changes
const keyPrefix = "factlock:v1:"

// Key derives a cache key from the rules fingerprint and the verification inputs.
// Inputs are JSON-encoded, so any two invocations with equal inputs share a key.
func Key(rulesFingerprint string, inputs any) (string, error) {
	encoded, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("encode cache key inputs: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(rulesFingerprint))
	h.Write([]byte{0})
	h.Write(encoded)

	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
