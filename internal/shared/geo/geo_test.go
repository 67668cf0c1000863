package geo

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
	if HaversineKm(13.34, 74.75, 13.34, 74.75) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     error
	}{
		{13.34, 74.75, nil},
		{90, 180, nil},
		{91, 0, ErrInvalidLatitude},
		{-90.5, 0, ErrInvalidLatitude},
		{0, 181, ErrInvalidLongitude},
		{math.NaN(), 0, ErrInvalidCoordinates},
		{0, math.Inf(1), ErrInvalidCoordinates},
	}
	for _, tc := range cases {
		if err := ValidateCoordinates(tc.lat, tc.lng); !errors.Is(err, tc.want) {
			t.Fatalf("ValidateCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lng, err, tc.want)
		}
	}
}

func TestDirectionsURLRejectsOutOfRange(t *testing.T) {
	_, err := DirectionsURL(Destination{Lat: 91, Lng: 0, Name: "X"}, PlatformDesktop)
	if !errors.Is(err, ErrInvalidLatitude) {
		t.Fatalf("expected latitude error, got %v", err)
	}
}

func TestDirectionsURLDesktop(t *testing.T) {
	u, err := DirectionsURL(Destination{Lat: 13.34, Lng: 74.75, Name: "Sri Krishna Temple"}, PlatformDesktop)
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	if !strings.Contains(u, "destination=13.34,74.75") {
		t.Fatalf("missing coordinate pair: %s", u)
	}
	if !strings.Contains(u, "destination_name=Sri%20Krishna%20Temple") {
		t.Fatalf("missing encoded name: %s", u)
	}
}

func TestDirectionsURLMobile(t *testing.T) {
	d := Destination{Lat: 13.3758, Lng: 74.7033, Name: "Malpe Beach"}

	android, err := DirectionsURL(d, PlatformAndroid)
	if err != nil || android != "google.navigation:q=13.3758,74.7033" {
		t.Fatalf("unexpected android url %q (%v)", android, err)
	}
	ios, err := DirectionsURL(d, PlatformIOS)
	if err != nil || ios != "maps://?q=13.3758,74.7033&sll=13.3758,74.7033&z=16" {
		t.Fatalf("unexpected ios url %q (%v)", ios, err)
	}
}

func TestPlatformDetection(t *testing.T) {
	if PlatformFromUserAgent("Mozilla/5.0 (Linux; Android 14)") != PlatformAndroid {
		t.Fatalf("expected android")
	}
	if PlatformFromUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)") != PlatformIOS {
		t.Fatalf("expected ios")
	}
	if PlatformFromUserAgent("Mozilla/5.0 (X11; Linux x86_64)") != PlatformDesktop {
		t.Fatalf("expected desktop")
	}
	if ParsePlatform("IOS") != PlatformIOS || ParsePlatform("") != PlatformDesktop {
		t.Fatalf("unexpected parse result")
	}
}

func TestShareURLAndEscape(t *testing.T) {
	if got := ShareURL("https://udupi.example/", 7); got != "https://udupi.example/?location=7" {
		t.Fatalf("unexpected share url %q", got)
	}
	cases := map[string]string{
		"User denied & more":  "User%20denied%20%26%20more",
		"St. Mary's (Island)": "St.%20Mary's%20(Island)",
		"Can't stop!*~":       "Can't%20stop!*~",
		"a+b=c/d?":            "a%2Bb%3Dc%2Fd%3F",
		"100%21":              "100%2521",
	}
	for in, want := range cases {
		if got := EscapeComponent(in); got != want {
			t.Fatalf("EscapeComponent(%q) = %q, want %q", in, got, want)
		}
	}
}
