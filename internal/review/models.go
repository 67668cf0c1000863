package review

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrRatingRequired      = errors.New("please select a rating")
	ErrRatingOutOfRange    = errors.New("rating must be between 1 and 5")
	ErrCommentRequired     = errors.New("please write a comment")
	ErrNotAuthenticated    = errors.New("please sign in to write a review")
	ErrInvalidVisitDate    = errors.New("visit_date must be YYYY-MM-DD")
	ErrUnknownReview       = errors.New("review not found")
	ErrUnknownLocation     = errors.New("location does not exist")
	ErrSuperseded          = errors.New("a newer load was started")
	ErrInvalidSortOrder    = errors.New("sort must be newest, rating or helpful")
	ErrInvalidRatingFilter = errors.New("rating filter must be between 1 and 5")
)

const visitDateLayout = "2006-01-02"

type Review struct {
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
	VisitDate    string    `json:"visit_date,omitempty"`
}

// Submission is what a user fills in when writing a review.
type Submission struct {
	LocationID int      `json:"location_id"`
	Rating     int      `json:"rating"`
	Title      string   `json:"title"`
	Comment    string   `json:"comment"`
	VisitDate  string   `json:"visit_date,omitempty"`
	Images     []string `json:"images,omitempty"`
}

func (s Submission) Validate() error {
	if s.Rating == 0 {
		return ErrRatingRequired
	}
	if s.Rating < 1 || s.Rating > 5 {
		return ErrRatingOutOfRange
	}
	if strings.TrimSpace(s.Comment) == "" {
		return ErrCommentRequired
	}
	if s.VisitDate != "" {
		if _, err := time.Parse(visitDateLayout, s.VisitDate); err != nil {
			return ErrInvalidVisitDate
		}
	}
	return nil
}

// IsValidation reports whether err is one of the submission rejections.
func IsValidation(err error) bool {
	return errors.Is(err, ErrRatingRequired) ||
		errors.Is(err, ErrRatingOutOfRange) ||
		errors.Is(err, ErrCommentRequired) ||
		errors.Is(err, ErrInvalidVisitDate)
}
