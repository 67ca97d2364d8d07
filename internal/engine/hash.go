package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash returns the SHA-256 hex digest of v's canonical JSON form.
// Structurally equal values hash identically regardless of key or map
// insertion order: the value is round-tripped through encoding/json, whose
// map encoding sorts keys and uses compact separators.
func ContentHash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash: marshal: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", fmt.Errorf("hash: canonicalize: %w", err)
	}
	canonical, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("hash: remarshal: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CacheKey builds a deterministic cache key from the properties that
// identify one fetched transcript: video, language, manual/auto, and the
// track discriminator.
func CacheKey(videoID, lang string, isAuto bool, track string) (string, error) {
	return ContentHash(map[string]any{
		"video_id": videoID,
		"lang":     lang,
		"is_auto":  isAuto,
		"track":    track,
	})
}
