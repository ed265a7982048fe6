// Package caching holds the outcomes shared by the cache layers.
package caching

import "errors"

var (
	// ErrNoValidCache means the cache has nothing trustworthy for the key:
	// the data is absent or older than its TTL. Callers should try the network.
	ErrNoValidCache = errors.New("no valid cache entry")

	// ErrNeverCached means the store has nothing at all for the key, not even
	// an expired copy.
	ErrNeverCached = errors.New("never cached")

	// ErrUndecodable means rows exist for the key but none could be decoded.
	ErrUndecodable = errors.New("cached rows could not be decoded")
)
