package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key prefixes.
const (
	PrefixLayout = "layout"
)

// Key generates a cache key by hashing the components.
// The key format is: prefix:sha256(json(parts)).
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// LayoutKey is the key of the SVG produced by engine for dot.
func LayoutKey(engine, dot string) string {
	return Key(PrefixLayout, engine, Hash([]byte(dot)))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
