package favorite

import (
	"errors"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("please sign in to save favorites")
	ErrUnknownLocation  = errors.New("location does not exist")
	ErrSuperseded       = errors.New("a newer favorites load was started")
)

// Favorite is one saved location with a short summary of it.
type Favorite struct {
	UserID     string    `json:"user_id"`
	LocationID int       `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	Location   Summary   `json:"location"`
}

type Summary struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	ShortDescription string  `json:"short_description"`
	AverageRating    float64 `json:"average_rating"`
	Images           []Image `json:"images"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}
