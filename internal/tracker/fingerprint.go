package tracker

import (
	"crypto/sha1" //nolint:gosec // change detection only
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint hashes the canonical JSON form of a camelized page. Map keys
// are emitted sorted, so equal content always yields the same digest.
func Fingerprint(page any) (string, error) {
	raw, err := json.Marshal(page)
	if err != nil {
		return "", fmt.Errorf("encode page: %w", err)
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}
