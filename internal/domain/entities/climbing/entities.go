// Package climbing defines the climbing-directory entities served by federation backends.
package climbing

import "time"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Site struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Country     string       `json:"country,omitempty"`
	Region      string       `json:"region,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	MapSVGURL   string       `json:"mapSvgUrl,omitempty"`
	RouteCount  int          `json:"routeCount"`
}

type Area struct {
	ID          int64        `json:"id"`
	SiteID      int64        `json:"siteId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Sector struct {
	ID          int64        `json:"id"`
	AreaID      int64        `json:"areaId"`
	SiteID      int64        `json:"siteId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Orientation string       `json:"orientation,omitempty"`
	Approach    string       `json:"approach,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Line struct {
	ID       int64   `json:"id"`
	SectorID int64   `json:"sectorId"`
	Name     string  `json:"name"`
	Number   int     `json:"number"`
	Height   float64 `json:"height,omitempty"`
}

// SchemaPath is the drawn path of one line over a schema background.
type SchemaPath struct {
	LineID  int64  `json:"lineId"`
	SVGPath string `json:"svgPath"`
	Color   string `json:"color,omitempty"`
}

// SectorSchema is a topo drawing of a sector. Preview is derived locally from
// the background image and is never stored.
type SectorSchema struct {
	ID            int64        `json:"id"`
	SectorID      int64        `json:"sectorId"`
	Name          string       `json:"name"`
	BackgroundURL string       `json:"backgroundUrl"`
	Paths         []SchemaPath `json:"paths"`
	Preview       []byte       `json:"preview,omitempty"`
}

type Route struct {
	ID          int64   `json:"id"`
	SiteID      int64   `json:"siteId"`
	SectorID    int64   `json:"sectorId"`
	LineID      int64   `json:"lineId"`
	Name        string  `json:"name"`
	Grade       string  `json:"grade"`
	Height      float64 `json:"height,omitempty"`
	Style       string  `json:"style,omitempty"`
	Bolts       int     `json:"bolts,omitempty"`
	Description string  `json:"description,omitempty"`
}

type Contest struct {
	ID          int64         `json:"id"`
	SiteID      int64         `json:"siteId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	StartsAt    time.Time     `json:"startsAt"`
	EndsAt      time.Time     `json:"endsAt"`
	Steps       []ContestStep `json:"steps,omitempty"`
}

type ContestStep struct {
	ID        int64     `json:"id"`
	ContestID int64     `json:"contestId"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	RouteIDs  []int64   `json:"routeIds,omitempty"`
}

type ContestRanking struct {
	ID          int64   `json:"id"`
	ContestID   int64   `json:"contestId"`
	Rank        int     `json:"rank"`
	ClimberName string  `json:"climberName"`
	Category    string  `json:"category,omitempty"`
	Score       float64 `json:"score"`
}

// Log is one ascent recorded by the user.
type Log struct {
	ID        int64     `json:"id"`
	RouteID   int64     `json:"routeId"`
	ClimbedAt time.Time `json:"climbedAt"`
	Style     string    `json:"style,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Rating    int       `json:"rating,omitempty"`
}

// PendingLog is a log written on this device that has not been accepted by its backend yet.
type PendingLog struct {
	ClientRef string    `json:"clientRef"`
	BackendID string    `json:"backendId"`
	RouteID   int64     `json:"routeId"`
	Log       Log       `json:"log"`
	CreatedAt time.Time `json:"createdAt"`
}
