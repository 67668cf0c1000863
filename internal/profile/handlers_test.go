package profile

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"
)

func TestProfileHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM profiles`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow("user-1", "asha", "Asha", "", "", false, false, now, now))
	mock.ExpectQuery(`UPDATE profiles`).
		WithArgs("user-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow("user-1", "asha", "Asha R", "", "", false, false, now, now))
	mock.ExpectQuery(`FROM profiles`).
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows(profileCols))

	app := fiber.New()
	RegisterRoutes(app.Group("/profiles"), NewService(mock, nil, zap.NewNop()), func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/profiles/me", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get me status: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/profiles/me", bytes.NewReader([]byte(`{"full_name":"Asha R"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status: %v", err)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/profiles/nobody", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
