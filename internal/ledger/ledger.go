// Package ledger is the durable record of links already published. It
// enforces at-most-once publication per link.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Ledger answers "was this link published" and records publications.
// Record is idempotent: a repeat call for a known link is a silent no-op.
type Ledger interface {
	Has(ctx context.Context, link string) (bool, error)
	Record(ctx context.Context, id, title, link string) error
}

// NewsID derives a stable id from the link alone, so re-deriving it for
// the same link always yields the same id across restarts.
func NewsID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}
