// Package security provides identifiers, admin tokens and password checks.
package security

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// NewClientRef returns a ULID stamped with at. Client references of pending
// logs sort by creation time.
func NewClientRef(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
