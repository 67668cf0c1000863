package location

import (
	"context"
	"fmt"

	"backend-discoverudupi/internal/db"
	"backend-discoverudupi/internal/shared/geo"

	"go.uber.org/zap"
)

// Source is where the browse endpoints read locations from.
type Source interface {
	All(ctx context.Context) ([]Location, error)
	Get(ctx context.Context, id int) (Location, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, category string) ([]Nearby, error)
}

// Service reads locations from the location_details view.
type Service struct {
	db  db.Querier
	log *zap.Logger
}

func NewService(db db.Querier, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

const detailColumns = `id, name, slug, COALESCE(category_name,''), COALESCE(description,''),
		       COALESCE(tips,''), COALESCE(opening_hours,''), average_rating, total_reviews,
		       COALESCE(address,''), COALESCE(features, '{}'), COALESCE(best_time_to_visit,''),
		       lat, lng, COALESCE(image_url,''), COALESCE(blur_data_url,'')`

// detailsRow is the column layout of location_details; it is kept apart from
// Location so the view can change without touching the API shape.
type detailsRow struct {
	ID            int
	Name          string
	Slug          string
	CategoryName  string
	Description   string
	Tips          string
	OpeningHours  string
	AverageRating float64
	TotalReviews  int
	Address       string
	Features      []string
	BestTime      string
	Lat           float64
	Lng           float64
	ImageURL      string
	BlurDataURL   string
}

func (r *detailsRow) dest() []any {
	return []any{&r.ID, &r.Name, &r.Slug, &r.CategoryName, &r.Description, &r.Tips, &r.OpeningHours,
		&r.AverageRating, &r.TotalReviews, &r.Address, &r.Features, &r.BestTime,
		&r.Lat, &r.Lng, &r.ImageURL, &r.BlurDataURL}
}

func (r detailsRow) toLocation() (Location, error) {
	if err := geo.ValidateCoordinates(r.Lat, r.Lng); err != nil {
		return Location{}, fmt.Errorf("location %d: %w", r.ID, err)
	}
	if r.AverageRating < 0 || r.AverageRating > 5 {
		return Location{}, fmt.Errorf("location %d: rating %v out of range", r.ID, r.AverageRating)
	}
	l := Location{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Category:    r.CategoryName,
		Description: r.Description,
		Tips:        r.Tips,
		Hours:       r.OpeningHours,
		Rating:      r.AverageRating,
		Reviews:     r.TotalReviews,
		Address:     r.Address,
		Highlights:  r.Features,
		BestTime:    r.BestTime,
		Lat:         r.Lat,
		Lng:         r.Lng,
	}
	if r.ImageURL != "" {
		l.Image = &ImageRef{URL: r.ImageURL, BlurDataURL: r.BlurDataURL}
	}
	return l, nil
}

func (s *Service) All(ctx context.Context) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+detailColumns+`
		FROM location_details
		WHERE is_active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var r detailsRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		l, err := r.toLocation()
		if err != nil {
			s.log.Warn("skipping invalid location row", zap.Error(err))
			continue
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (s *Service) Get(ctx context.Context, id int) (Location, error) {
	var r detailsRow
	err := s.db.QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM location_details
		WHERE id=$1 AND is_active
	`, id).Scan(r.dest()...)
	if db.IsNoRows(err) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, err
	}
	return r.toLocation()
}

// Nearby delegates the radius search to the get_nearby_locations function.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64, category string) ([]Nearby, error) {
	if err := geo.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if category == CategoryAll {
		category = ""
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+detailColumns+`, distance_km
		FROM get_nearby_locations($1, $2, $3, NULLIF($4, ''))
		ORDER BY distance_km
	`, lat, lng, radiusKm, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Nearby
	for rows.Next() {
		var r detailsRow
		var dist float64
		if err := rows.Scan(append(r.dest(), &dist)...); err != nil {
			return nil, err
		}
		l, err := r.toLocation()
		if err != nil {
			s.log.Warn("skipping invalid nearby row", zap.Error(err))
			continue
		}
		out = append(out, Nearby{Location: l, DistanceKm: dist})
	}
	return out, rows.Err()
}
