package geo

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates provided")
	ErrInvalidLatitude    = errors.New("latitude must be between -90 and 90 degrees")
	ErrInvalidLongitude   = errors.New("longitude must be between -180 and 180 degrees")
)

// HaversineKm returns the great-circle distance in km between two WGS84 points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 {
		return ErrInvalidLatitude
	}
	if lng < -180 || lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// IsCoordinateError reports whether err came from ValidateCoordinates.
func IsCoordinateError(err error) bool {
	return errors.Is(err, ErrInvalidCoordinates) ||
		errors.Is(err, ErrInvalidLatitude) ||
		errors.Is(err, ErrInvalidLongitude)
}

type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// ParsePlatform accepts the platform names used in query strings; anything
// unknown is treated as desktop.
func ParsePlatform(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformAndroid:
		return PlatformAndroid
	case PlatformIOS:
		return PlatformIOS
	default:
		return PlatformDesktop
	}
}

func PlatformFromUserAgent(ua string) Platform {
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "android"):
		return PlatformAndroid
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ipod"):
		return PlatformIOS
	default:
		return PlatformDesktop
	}
}

type Destination struct {
	Lat  float64
	Lng  float64
	Name string
}

// DirectionsURL builds a deep link that opens turn-by-turn directions to d.
func DirectionsURL(d Destination, p Platform) (string, error) {
	if err := ValidateCoordinates(d.Lat, d.Lng); err != nil {
		return "", err
	}
	pair := formatCoord(d.Lat) + "," + formatCoord(d.Lng)

	switch p {
	case PlatformAndroid:
		return "google.navigation:q=" + pair, nil
	case PlatformIOS:
		return fmt.Sprintf("maps://?q=%s&sll=%s&z=16", pair, pair), nil
	default:
		return "https://www.google.com/maps/dir/?api=1&destination=" + pair +
			"&destination_name=" + EscapeComponent(d.Name) + "&travelmode=driving", nil
	}
}

// ShareURL is the public link for a location on the site.
func ShareURL(siteURL string, locationID int) string {
	return strings.TrimRight(siteURL, "/") + "/?location=" + strconv.Itoa(locationID)
}

// componentUnescape undoes the QueryEscape output that encodeURIComponent
// leaves literal.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent escapes s the way browsers' encodeURIComponent does.
func EscapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
