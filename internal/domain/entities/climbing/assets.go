package climbing

import "time"

// Asset is raw content fetched from a URL: SVG site maps and schema backgrounds.
type Asset struct {
	URL         string    `json:"url"`
	Content     []byte    `json:"content"`
	ContentType string    `json:"contentType,omitempty"`
	CachedAt    time.Time `json:"cachedAt"`
}
