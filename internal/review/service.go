package review

import (
	"context"
	"fmt"
	"time"

	"backend-discoverudupi/internal/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	anonymous    = "Anonymous"
)

type ListOptions struct {
	Sort   SortOrder
	Rating int
	Limit  int
	Offset int
}

type Service struct {
	db  db.Querier
	log *zap.Logger
}

func NewService(db db.Querier, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

var orderClauses = map[SortOrder]string{
	SortNewest:  "r.created_at DESC",
	SortRating:  "r.rating DESC, r.created_at DESC",
	SortHelpful: "r.helpful_count DESC, r.created_at DESC",
}

// reviewRow is one row of reviews joined with the author's profile and the
// review's images.
type reviewRow struct {
	ID           string
	LocationID   int
	UserID       string
	FullName     string
	AvatarURL    string
	Rating       int
	Title        string
	Comment      string
	VisitDate    string
	HelpfulCount int
	IsVerified   bool
	CreatedAt    time.Time
	Images       []string
}

func (r reviewRow) toReview() (Review, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return Review{}, fmt.Errorf("review %s: rating %d out of range", r.ID, r.Rating)
	}
	name := r.FullName
	if name == "" {
		name = anonymous
	}
	return Review{
		ID:           r.ID,
		LocationID:   r.LocationID,
		UserID:       r.UserID,
		UserName:     name,
		UserAvatar:   r.AvatarURL,
		Rating:       r.Rating,
		Title:        r.Title,
		Comment:      r.Comment,
		Images:       r.Images,
		CreatedAt:    r.CreatedAt,
		HelpfulCount: r.HelpfulCount,
		IsVerified:   r.IsVerified,
		VisitDate:    r.VisitDate,
	}, nil
}

func (s *Service) List(ctx context.Context, locationID int, opts ListOptions) ([]Review, error) {
	order, ok := orderClauses[opts.Sort]
	if !ok {
		order = orderClauses[SortNewest]
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.location_id, r.user_id, COALESCE(p.full_name,''), COALESCE(p.avatar_url,''),
		       r.rating, COALESCE(r.title,''), r.comment, COALESCE(to_char(r.visit_date,'YYYY-MM-DD'),''),
		       r.helpful_count, r.is_verified, r.created_at,
		       ARRAY(SELECT ri.url FROM review_images ri WHERE ri.review_id = r.id ORDER BY ri.created_at)
		FROM reviews r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.location_id=$1 AND ($2 = 0 OR r.rating = $2)
		ORDER BY `+order+`
		LIMIT $3 OFFSET $4
	`, locationID, opts.Rating, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r reviewRow
		if err := rows.Scan(&r.ID, &r.LocationID, &r.UserID, &r.FullName, &r.AvatarURL,
			&r.Rating, &r.Title, &r.Comment, &r.VisitDate,
			&r.HelpfulCount, &r.IsVerified, &r.CreatedAt, &r.Images); err != nil {
			return nil, err
		}
		rev, err := r.toReview()
		if err != nil {
			s.log.Warn("skipping invalid review row", zap.Error(err))
			continue
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (s *Service) Stats(ctx context.Context, locationID int) (Stats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT rating, COUNT(*)
		FROM reviews
		WHERE location_id=$1
		GROUP BY rating
	`, locationID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	counts := map[int]int{}
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return Stats{}, err
		}
		counts[rating] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	return StatsFromCounts(counts), nil
}

// Create stores a validated submission for userID together with its images.
func (s *Service) Create(ctx context.Context, userID string, sub Submission) (Review, error) {
	if err := sub.Validate(); err != nil {
		return Review{}, err
	}
	rev := Review{
		ID:         uuid.NewString(),
		LocationID: sub.LocationID,
		UserID:     userID,
		Rating:     sub.Rating,
		Title:      sub.Title,
		Comment:    sub.Comment,
		Images:     sub.Images,
		VisitDate:  sub.VisitDate,
	}
	var visitDate any
	if sub.VisitDate != "" {
		visitDate = sub.VisitDate
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO reviews (id, location_id, user_id, rating, title, comment, visit_date)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7)
		RETURNING helpful_count, is_verified, created_at
	`, rev.ID, rev.LocationID, rev.UserID, rev.Rating, rev.Title, rev.Comment, visitDate)
	if err := row.Scan(&rev.HelpfulCount, &rev.IsVerified, &rev.CreatedAt); err != nil {
		if db.IsForeignKeyViolation(err) {
			return Review{}, ErrUnknownLocation
		}
		return Review{}, err
	}

	for _, url := range sub.Images {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO review_images (id, review_id, url)
			VALUES ($1,$2,$3)
		`, uuid.NewString(), rev.ID, url); err != nil {
			return Review{}, fmt.Errorf("store review image: %w", err)
		}
	}

	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(full_name,''), COALESCE(avatar_url,'')
		FROM profiles
		WHERE id=$1
	`, userID).Scan(&rev.UserName, &rev.UserAvatar)
	if err != nil && !db.IsNoRows(err) {
		s.log.Warn("review author lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	if rev.UserName == "" {
		rev.UserName = anonymous
	}
	return rev, nil
}
