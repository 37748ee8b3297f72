// Package review defines the review record model shared by the extraction
// pipeline and its consumers: a typed record, deterministic identity for
// records whose source markup carries no stable id, and publication-date
// parsing for the localized formats the target renders.
package review

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Record is one extracted review. Immutable once constructed: the pipeline
// never rewrites a record after it has been emitted.
type Record struct {
	// ID is the stable identifier. Taken from the markup when present,
	// otherwise derived via DeriveID.
	ID string `json:"id"`

	// Author is the display name of the reviewer.
	Author string `json:"author"`

	// Rating is 1..5, or 0 when the card carries no rating.
	Rating int `json:"rating,omitempty"`

	// PublishedAt is the parsed publication time (UTC, midnight). Zero when
	// PublishedRaw could not be parsed.
	PublishedAt time.Time `json:"published_at,omitempty"`

	// PublishedRaw is the date text exactly as rendered. Always kept so an
	// unparseable date is preserved rather than lost.
	PublishedRaw string `json:"published_raw,omitempty"`

	// Body is the review text.
	Body string `json:"body"`

	// BodyHTML is the sanitized inner HTML of the body node, kept for
	// renderers that want formatting (links, line breaks). Empty when the
	// body was plain text.
	BodyHTML string `json:"body_html,omitempty"`

	// Reply is the business response, if any.
	Reply string `json:"reply,omitempty"`
}

// DeriveID produces a deterministic identifier from the fields that survive
// re-rendering: author, raw date text, and body. Two snapshots of the same
// review yield the same id; an edited body yields a new id, which the
// deduplicator treats as a new record.
func DeriveID(author, publishedRaw, body string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(author)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(publishedRaw)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(body)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
