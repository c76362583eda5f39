// Package contenthash fingerprints editable content so expensive AI
// re-analysis only runs when the content actually changed since the last
// analysis.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex-encoded SHA-256 digest of text. Stable across calls
// and processes; any collision-resistant digest would do, the comparison
// only relies on determinism.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Changed reports whether current content differs from the content the
// previous fingerprint was computed from. A nil previous fingerprint means
// nothing was ever analyzed, which counts as changed so the first analysis
// always runs.
func Changed(current string, previous *string) bool {
	if previous == nil || *previous == "" {
		return true
	}
	return Hash(current) != *previous
}
