// Package messaging defines interfaces for real-time communication.
package messaging

// Publisher receives cache events. Implementations must not block.
type Publisher interface {
	Publish(event CacheEvent)
}
