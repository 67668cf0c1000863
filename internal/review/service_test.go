package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"
)

var listCols = []string{"id", "location_id", "user_id", "full_name", "avatar_url", "rating", "title",
	"comment", "visit_date", "helpful_count", "is_verified", "created_at", "images"}

func TestServiceList(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM reviews r\s+LEFT JOIN profiles p .*ORDER BY r.rating DESC`).
		WithArgs(1, 0, DefaultLimit, 0).
		WillReturnRows(pgxmock.NewRows(listCols).
			AddRow("r1", 1, "user-1", "", "", 5, "Wow", "great", "2024-01-02", 3, true, now, []string{"https://img/1.jpg"}).
			AddRow("r2", 1, "user-2", "Ravi", "", 9, "", "bad row", "", 0, false, now, []string{}))

	svc := NewService(mock, zap.NewNop())
	reviews, err := svc.List(context.Background(), 1, ListOptions{Sort: SortRating})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected invalid row to be skipped, got %d", len(reviews))
	}
	if reviews[0].UserName != anonymous || len(reviews[0].Images) != 1 || reviews[0].VisitDate != "2024-01-02" {
		t.Fatalf("unexpected review %+v", reviews[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceListClampsLimit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM reviews r`).
		WithArgs(2, 4, MaxLimit, 0).
		WillReturnRows(pgxmock.NewRows(listCols))

	reviews, err := NewService(mock, zap.NewNop()).List(context.Background(), 2, ListOptions{Rating: 4, Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if reviews == nil || len(reviews) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}

func TestServiceStats(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT rating, COUNT\(\*\)`).
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"rating", "count"}).AddRow(5, 3).AddRow(1, 1))

	st, err := NewService(mock, zap.NewNop()).Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 4 || st.Average != 4 || st.Histogram[0].Percentage != 75 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestServiceCreate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(pgxmock.AnyArg(), 3, "user-1", 4, "", "tasty", nil).
		WillReturnRows(pgxmock.NewRows([]string{"helpful_count", "is_verified", "created_at"}).AddRow(0, false, now))
	mock.ExpectExec(`INSERT INTO review_images`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "https://img/a.jpg").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FROM profiles`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"full_name", "avatar_url"}).AddRow("Asha", "https://img/me.jpg"))

	rev, err := NewService(mock, zap.NewNop()).Create(context.Background(), "user-1", Submission{
		LocationID: 3, Rating: 4, Comment: "tasty", Images: []string{"https://img/a.jpg"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rev.ID == "" || rev.UserName != "Asha" || !rev.CreatedAt.Equal(now) {
		t.Fatalf("unexpected review %+v", rev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceCreateUnknownLocation(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(pgxmock.AnyArg(), 404, "user-1", 4, "", "tasty", nil).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err = NewService(mock, zap.NewNop()).Create(context.Background(), "user-1", Submission{
		LocationID: 404, Rating: 4, Comment: "tasty",
	})
	if !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected unknown location, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceCreateValidatesFirst(t *testing.T) {
	svc := NewService(nil, zap.NewNop())
	if _, err := svc.Create(context.Background(), "user-1", Submission{Rating: 3}); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected comment required, got %v", err)
	}
}
