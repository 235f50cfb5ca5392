package cache

import (
	"fmt"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// BuildPattern creates a pattern matching every key under prefix.
func BuildPattern(prefix string) string {
	return fmt.Sprintf("%s*", prefix)
}

// matchPattern supports the trailing-star patterns produced by BuildPattern.
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}
