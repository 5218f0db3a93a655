package feed

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint returns the content hash of a feed URL string. Holiday entries
// store it as provenance; a changed URL changes the fingerprint and marks the
// old entries stale. It deliberately hashes the URL, not the feed body: the
// pruning semantics detect a source change, not a content change.
func Fingerprint(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
