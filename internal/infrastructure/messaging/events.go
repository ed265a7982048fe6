package messaging

import "time"

// EventType names what happened to the cache.
type EventType string

const (
	EventWrite EventType = "write"
	EventClear EventType = "clear"
)

// CacheEvent describes one write to or clear of the cache.
type CacheEvent struct {
	Type      EventType `json:"type"`
	Category  string    `json:"category,omitempty"`
	BackendID string    `json:"backendId,omitempty"`
	ParentID  int64     `json:"parentId,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	At        time.Time `json:"at"`
}
