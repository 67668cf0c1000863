package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"backend-discoverudupi/internal/favorite"
	"backend-discoverudupi/internal/location"
	"backend-discoverudupi/internal/review"

	"go.uber.org/zap"
)

func (c *Client) Locations(ctx context.Context, category, query string) ([]location.Location, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if query != "" {
		q.Set("q", query)
	}
	var recs []locationRecord
	if err := c.do(ctx, http.MethodGet, withQuery("/locations", q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]location.Location, 0, len(recs))
	for _, r := range recs {
		l, err := r.validate()
		if err != nil {
			c.log.Warn("skipping invalid location", zap.Error(err))
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *Client) Location(ctx context.Context, id int) (location.Location, error) {
	var rec locationRecord
	if err := c.do(ctx, http.MethodGet, "/locations/"+strconv.Itoa(id), nil, &rec); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return location.Location{}, location.ErrNotFound
		}
		return location.Location{}, err
	}
	return rec.validate()
}

func (c *Client) Categories(ctx context.Context) ([]location.Category, error) {
	var cats []location.Category
	err := c.do(ctx, http.MethodGet, "/locations/categories", nil, &cats)
	return cats, err
}

func (c *Client) Nearby(ctx context.Context, lat, lng, radiusKm float64, category string) ([]location.Nearby, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	if radiusKm > 0 {
		q.Set("radius_km", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	if category != "" {
		q.Set("category", category)
	}
	var recs []locationRecord
	if err := c.do(ctx, http.MethodGet, withQuery("/locations/nearby", q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]location.Nearby, 0, len(recs))
	for _, r := range recs {
		l, err := r.validate()
		if err != nil || r.DistanceKm == nil || *r.DistanceKm < 0 {
			c.log.Warn("skipping invalid nearby location", zap.Int("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, location.Nearby{Location: l, DistanceKm: *r.DistanceKm})
	}
	return out, nil
}

// Directions returns the maps deep link for a location. An empty platform
// lets the server decide.
func (c *Client) Directions(ctx context.Context, id int, platform string) (string, error) {
	q := url.Values{}
	if platform != "" {
		q.Set("platform", platform)
	}
	var out struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, http.MethodGet, withQuery("/locations/"+strconv.Itoa(id)+"/directions", q), nil, &out)
	return out.URL, err
}

type ShareLink struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func (c *Client) Share(ctx context.Context, id int) (ShareLink, error) {
	var out ShareLink
	err := c.do(ctx, http.MethodGet, "/locations/"+strconv.Itoa(id)+"/share", nil, &out)
	return out, err
}

// ListReviews fetches up to review.MaxLimit reviews, newest first.
func (c *Client) ListReviews(ctx context.Context, locationID int) ([]review.Review, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(review.MaxLimit))
	var recs []reviewRecord
	if err := c.do(ctx, http.MethodGet, withQuery("/locations/"+strconv.Itoa(locationID)+"/reviews", q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]review.Review, 0, len(recs))
	for _, r := range recs {
		rv, err := r.validate()
		if err != nil {
			c.log.Warn("skipping invalid review", zap.Int("location_id", locationID), zap.Error(err))
			continue
		}
		out = append(out, rv)
	}
	return out, nil
}

func (c *Client) ReviewStats(ctx context.Context, locationID int) (review.Stats, error) {
	var st review.Stats
	err := c.do(ctx, http.MethodGet, "/locations/"+strconv.Itoa(locationID)+"/reviews/stats", nil, &st)
	return st, err
}

func (c *Client) SubmitReview(ctx context.Context, s review.Submission) (review.Review, error) {
	var rec reviewRecord
	if err := c.do(ctx, http.MethodPost, "/locations/"+strconv.Itoa(s.LocationID)+"/reviews", s, &rec); err != nil {
		return review.Review{}, err
	}
	return rec.validate()
}

func (c *Client) ListFavorites(ctx context.Context) ([]favorite.Favorite, error) {
	var recs []favoriteRecord
	if err := c.do(ctx, http.MethodGet, "/favorites", nil, &recs); err != nil {
		return nil, err
	}
	out := make([]favorite.Favorite, 0, len(recs))
	for _, r := range recs {
		f, err := r.validate()
		if err != nil {
			c.log.Warn("skipping invalid favorite", zap.Error(err))
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (c *Client) AddFavorite(ctx context.Context, locationID int) error {
	return c.do(ctx, http.MethodPost, "/favorites/"+strconv.Itoa(locationID), nil, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, locationID int) error {
	return c.do(ctx, http.MethodDelete, "/favorites/"+strconv.Itoa(locationID), nil, nil)
}
