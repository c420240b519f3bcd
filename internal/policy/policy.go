// Package policy decides whether a recorded checksum may be trusted
// without re-reading file content.
//
// The rule is deliberately conservative and cheap: a record is trusted
// if and only if the current size and modification time both equal the
// recorded values exactly. There is no tolerance window. Size+mtime
// equality is a proxy for "content unchanged": it can produce false
// negatives (content rewritten while size and mtime are preserved by a
// malicious or buggy actor) but a match never costs more than a stat.
// Filesystems that truncate sub-second mtime precision widen that false
// negative window. Both limitations are inherent to the policy; the
// only remedy is deep verify, which bypasses this package entirely and
// rehashes everything.
package policy

import (
	"time"

	"github.com/CireWire/preserv/internal/manifest"
)

// Decision is the outcome of the incremental rehash policy.
type Decision int

const (
	// TrustExistingHash means the recorded checksum may be reused.
	TrustExistingHash Decision = iota
	// MustRehash means content must be re-read and re-hashed.
	MustRehash
)

// String implements fmt.Stringer for log messages.
func (d Decision) String() string {
	if d == TrustExistingHash {
		return "trust"
	}
	return "rehash"
}

// Evaluate compares freshly probed metadata against a manifest record.
func Evaluate(rec manifest.Record, size int64, modTime time.Time) Decision {
	if size == rec.Size && modTime.Equal(rec.ModTime) {
		return TrustExistingHash
	}
	return MustRehash
}
