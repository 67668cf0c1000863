package favorite

import (
	"context"

	"backend-discoverudupi/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// List returns userID's favorites, newest first, each joined with its location.
func (s *Service) List(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.location_id, f.created_at, l.name, l.slug, COALESCE(l.short_description,''), l.average_rating
		FROM favorites f
		JOIN locations l ON l.id = f.location_id
		WHERE f.user_id=$1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favs := []Favorite{}
	var ids []int
	for rows.Next() {
		f := Favorite{UserID: userID}
		if err := rows.Scan(&f.LocationID, &f.CreatedAt, &f.Location.Name, &f.Location.Slug,
			&f.Location.ShortDescription, &f.Location.AverageRating); err != nil {
			return nil, err
		}
		f.Location.ID = f.LocationID
		ids = append(ids, f.LocationID)
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	images, err := s.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range favs {
		favs[i].Location.Images = images[favs[i].LocationID]
	}
	return favs, nil
}

func (s *Service) loadImages(ctx context.Context, locationIDs []int) (map[int][]Image, error) {
	if len(locationIDs) == 0 {
		return map[int][]Image{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT location_id, url, COALESCE(alt_text,'')
		FROM location_images WHERE location_id = ANY($1)
		ORDER BY is_primary DESC, sort_order
	`, locationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	images := map[int][]Image{}
	for rows.Next() {
		var id int
		var img Image
		if err := rows.Scan(&id, &img.URL, &img.AltText); err != nil {
			return nil, err
		}
		images[id] = append(images[id], img)
	}
	return images, rows.Err()
}

// Add is idempotent: saving an already saved location is not an error.
func (s *Service) Add(ctx context.Context, userID string, locationID int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO favorites (id, user_id, location_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, location_id) DO NOTHING
	`, uuid.NewString(), userID, locationID)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownLocation
	}
	return err
}

func (s *Service) Remove(ctx context.Context, userID string, locationID int) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id=$1 AND location_id=$2
	`, userID, locationID)
	return err
}
