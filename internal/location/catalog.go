package location

import (
	"context"
	"sort"

	"backend-discoverudupi/internal/shared/geo"
)

var catalog = []Location{
	{
		ID:          1,
		Name:        "Sri Krishna Temple",
		Slug:        "sri-krishna-temple",
		Category:    "temples",
		Image:       &ImageRef{URL: "/images/locations/IMG_3788.webp"},
		Description: "The famous Krishna Temple in Udupi is a 13th-century temple dedicated to Lord Krishna. Known for its unique worship practices and delicious prasadam.",
		Tips:        "Visit early morning (6 AM) for peaceful darshan. Don't miss the evening aarti at 8 PM. Photography is not allowed inside the main temple.",
		Hours:       "4:00 AM - 8:00 PM",
		Rating:      5.0,
		Reviews:     2847,
		Address:     "Car Street, Udupi, Karnataka 576101",
		Highlights:  []string{"Ancient Architecture", "Spiritual Experience", "Famous Prasadam"},
		BestTime:    "Early morning or evening",
		Lat:         13.341283642111593,
		Lng:         74.7519721779162,
	},
	{
		ID:          2,
		Name:        "Malpe Beach",
		Slug:        "malpe-beach",
		Category:    "beaches",
		Image:       &ImageRef{URL: "https://images.unsplash.com/photo-1544551763-46a013bb70d5?w=800&h=600&fit=crop"},
		Description: "A pristine beach with golden sand, clear blue waters, and stunning sunsets. Perfect for water sports and beach photography.",
		Tips:        "Best sunset views from 6-7 PM. Try parasailing and jet skiing. Fresh seafood available at beach shacks.",
		Hours:       "24/7 (safest during daylight)",
		Rating:      4.6,
		Reviews:     1892,
		Address:     "Malpe, Udupi, Karnataka 576106",
		Highlights:  []string{"Water Sports", "Sunset Views", "Fresh Seafood"},
		BestTime:    "Evening for sunset",
		Lat:         13.3758,
		Lng:         74.7033,
	},
	{
		ID:          3,
		Name:        "Woodlands Restaurant",
		Slug:        "woodlands-restaurant",
		Category:    "food",
		Image:       &ImageRef{URL: "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800&h=600&fit=crop"},
		Description: "Legendary South Indian vegetarian restaurant serving authentic Udupi cuisine since 1938. Home of the famous Udupi dosa.",
		Tips:        "Try the masala dosa and filter coffee. Expect a wait during lunch hours.",
		Hours:       "7:00 AM - 10:00 PM",
		Rating:      4.5,
		Reviews:     1324,
		Address:     "Woodlands Complex, Udupi, Karnataka 576101",
		Highlights:  []string{"Authentic Cuisine", "Family Friendly", "Historic"},
		BestTime:    "Breakfast or lunch",
		Lat:         13.3381,
		Lng:         74.7426,
	},
	{
		ID:          4,
		Name:        "Kudlu Falls",
		Slug:        "kudlu-falls",
		Category:    "photography",
		Image:       &ImageRef{URL: "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800&h=600&fit=crop"},
		Description: "A hidden gem waterfall surrounded by dense forest. Perfect for nature photography and adventure seekers.",
		Tips:        "Visit during monsoon (June-September) for maximum water flow. Carry trekking shoes and tripod for photography.",
		Hours:       "Dawn to dusk",
		Rating:      4.5,
		Reviews:     967,
		Address:     "Kudlu, Udupi, Karnataka",
		Highlights:  []string{"Hidden Waterfall", "Trekking Trail", "Photography Paradise"},
		BestTime:    "Monsoon season",
		Lat:         13.6333,
		Lng:         75.0833,
	},
	{
		ID:          5,
		Name:        "St. Mary's Island",
		Slug:        "st-marys-island",
		Category:    "beaches",
		Image:       &ImageRef{URL: "https://images.unsplash.com/photo-1559827260-dc66d52bef19?w=800&h=600&fit=crop"},
		Description: "Unique hexagonal basaltic rock formations on a pristine island. Accessible by boat from Malpe Beach.",
		Tips:        "Take ferry from Malpe Beach (₹300 round trip). Best time is early morning. Carry water and snacks.",
		Hours:       "Ferry: 9:30 AM - 5:30 PM",
		Rating:      4.4,
		Reviews:     1456,
		Address:     "Off Malpe Coast, Udupi, Karnataka",
		Highlights:  []string{"Unique Rock Formations", "Island Adventure", "Crystal Clear Waters"},
		BestTime:    "Early morning",
		Lat:         13.4072,
		Lng:         74.6731,
	},
	{
		ID:          6,
		Name:        "Anantheshwar Temple",
		Slug:        "anantheshwar-temple",
		Category:    "temples",
		Image:       &ImageRef{URL: "https://images.unsplash.com/photo-1605379399642-870262d3d051?w=800&h=600&fit=crop"},
		Description: "Ancient Shiva temple with beautiful Dravidian architecture and intricate stone carvings dating back to 8th century.",
		Tips:        "Photography allowed in outer premises. Very peaceful for meditation. Best visited during morning prayers.",
		Hours:       "5:00 AM - 8:30 PM",
		Rating:      4.4,
		Reviews:     743,
		Address:     "Pajaka, Udupi, Karnataka",
		Highlights:  []string{"Ancient Architecture", "Stone Carvings", "Peaceful Atmosphere"},
		BestTime:    "Morning prayers",
		Lat:         13.3531,
		Lng:         74.7850,
	},
}

// Catalog returns a copy of the bundled dataset.
func Catalog() []Location {
	out := make([]Location, len(catalog))
	copy(out, catalog)
	return out
}

// StaticSource serves the bundled catalog.
type StaticSource struct {
	locs []Location
}

func NewStaticSource(locs []Location) *StaticSource {
	return &StaticSource{locs: locs}
}

func (s *StaticSource) All(_ context.Context) ([]Location, error) {
	out := make([]Location, len(s.locs))
	copy(out, s.locs)
	return out, nil
}

func (s *StaticSource) Get(_ context.Context, id int) (Location, error) {
	for _, l := range s.locs {
		if l.ID == id {
			return l, nil
		}
	}
	return Location{}, ErrNotFound
}

// Nearby mirrors get_nearby_locations over the in-memory set: closest first.
func (s *StaticSource) Nearby(_ context.Context, lat, lng, radiusKm float64, category string) ([]Nearby, error) {
	if err := geo.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	var out []Nearby
	for _, l := range s.locs {
		if !MatchesCategory(l, category) {
			continue
		}
		d := geo.HaversineKm(lat, lng, l.Lat, l.Lng)
		if d <= radiusKm {
			out = append(out, Nearby{Location: l, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
