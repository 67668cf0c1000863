package location

import (
	"encoding/json"
	"errors"
)

const CategoryAll = "all"

var ErrNotFound = errors.New("location not found")

type Location struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Tips        string    `json:"tips"`
	Hours       string    `json:"hours"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	Address     string    `json:"address"`
	Highlights  []string  `json:"highlights"`
	BestTime    string    `json:"best_time"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Image       *ImageRef `json:"image,omitempty"`
}

// ImageRef is either a bare URL or a URL with a tiny blurred placeholder.
type ImageRef struct {
	URL         string `json:"url"`
	BlurDataURL string `json:"blur_data_url,omitempty"`
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		*r = ImageRef{URL: url}
		return nil
	}
	type plain ImageRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ImageRef(p)
	return nil
}

type Nearby struct {
	Location
	DistanceKm float64 `json:"distance_km"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
