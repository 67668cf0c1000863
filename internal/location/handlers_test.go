package location

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/locations"), NewStaticSource(Catalog()), "https://udupi.example")
	return app
}

func TestLocationHandlersList(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/locations/?category=beaches", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var locs []Location
	if err := json.NewDecoder(resp.Body).Decode(&locs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 beaches, got %d", len(locs))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/locations/categories", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status: %v", err)
	}
	var cats []Category
	if err := json.NewDecoder(resp.Body).Decode(&cats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 5 || cats[0].ID != CategoryAll || cats[0].Count != 6 {
		t.Fatalf("unexpected categories %+v", cats)
	}
}

func TestLocationHandlersDetail(t *testing.T) {
	app := newTestApp()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/locations/42", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/locations/abc", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/locations/1/share", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("share status: %v", err)
	}
	var share map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&share)
	if share["url"] != "https://udupi.example/?location=1" {
		t.Fatalf("unexpected share url %q", share["url"])
	}
}

func TestLocationHandlersDirections(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/locations/1/directions", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14)")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("directions status: %v", err)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.HasPrefix(body["url"], "google.navigation:q=") {
		t.Fatalf("expected android link, got %q", body["url"])
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/locations/2/directions?platform=desktop", nil))
	body = map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["url"], "destination_name=Malpe%20Beach") {
		t.Fatalf("unexpected desktop link %q", body["url"])
	}
}

func TestLocationHandlersNearby(t *testing.T) {
	app := newTestApp()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/locations/nearby?lat=x", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/locations/nearby?lat=100&lng=74", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for latitude, got %d", resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/locations/nearby?lat=13.3413&lng=74.752&radius_km=2", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("nearby status: %v", err)
	}
	var out []Nearby
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) == 0 || out[0].ID != 1 {
		t.Fatalf("unexpected nearby %+v", out)
	}
}
