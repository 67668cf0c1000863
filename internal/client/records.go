package client

import (
	"fmt"
	"strings"
	"time"

	"backend-discoverudupi/internal/favorite"
	"backend-discoverudupi/internal/location"
	"backend-discoverudupi/internal/review"
	"backend-discoverudupi/internal/shared/geo"
)

// locationRecord is a location as it arrives on the wire.
type locationRecord struct {
	location.Location
	DistanceKm *float64 `json:"distance_km"`
}

func (r locationRecord) validate() (location.Location, error) {
	if r.ID <= 0 || strings.TrimSpace(r.Name) == "" {
		return location.Location{}, fmt.Errorf("location %d: missing id or name", r.ID)
	}
	if err := geo.ValidateCoordinates(r.Lat, r.Lng); err != nil {
		return location.Location{}, fmt.Errorf("location %d: %w", r.ID, err)
	}
	if r.Rating < 0 || r.Rating > 5 {
		return location.Location{}, fmt.Errorf("location %d: rating %v out of range", r.ID, r.Rating)
	}
	return r.Location, nil
}

type reviewRecord struct {
	ID           string    `json:"id"`
	LocationID   int       `json:"location_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserAvatar   string    `json:"user_avatar"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Comment      string    `json:"comment"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	HelpfulCount int       `json:"helpful_count"`
	IsVerified   bool      `json:"is_verified"`
	VisitDate    string    `json:"visit_date"`
}

func (r reviewRecord) validate() (review.Review, error) {
	switch {
	case r.ID == "":
		return review.Review{}, fmt.Errorf("review without id")
	case r.Rating < 1 || r.Rating > 5:
		return review.Review{}, fmt.Errorf("review %s: rating %d out of range", r.ID, r.Rating)
	case r.CreatedAt.IsZero():
		return review.Review{}, fmt.Errorf("review %s: missing created_at", r.ID)
	case r.HelpfulCount < 0:
		return review.Review{}, fmt.Errorf("review %s: negative helpful count", r.ID)
	}
	name := r.UserName
	if name == "" {
		name = "Anonymous"
	}
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return review.Review{
		ID:           r.ID,
		LocationID:   r.LocationID,
		UserID:       r.UserID,
		UserName:     name,
		UserAvatar:   r.UserAvatar,
		Rating:       r.Rating,
		Title:        r.Title,
		Comment:      r.Comment,
		Images:       images,
		CreatedAt:    r.CreatedAt,
		HelpfulCount: r.HelpfulCount,
		IsVerified:   r.IsVerified,
		VisitDate:    r.VisitDate,
	}, nil
}

type favoriteRecord favorite.Favorite

func (r favoriteRecord) validate() (favorite.Favorite, error) {
	if r.LocationID <= 0 {
		return favorite.Favorite{}, fmt.Errorf("favorite with location id %d", r.LocationID)
	}
	return favorite.Favorite(r), nil
}
