package banner

import "time"

// Banner is a promotional slot rendered on the storefront home page.
type Banner struct {
	ID        int       `json:"bannerId"`
	Image     string    `json:"image"`
	Link      string    `json:"link,omitempty"`
	Alt       string    `json:"alt,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}
