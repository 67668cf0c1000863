package location

import "strings"

var categoryNames = []Category{
	{ID: CategoryAll, Name: "All Places"},
	{ID: "temples", Name: "Temples"},
	{ID: "food", Name: "Food"},
	{ID: "beaches", Name: "Beaches"},
	{ID: "photography", Name: "Photo Spots"},
}

// Filter keeps the locations in category (or every category for "all") whose
// name or description contains query, ignoring case. Input order is kept.
func Filter(locs []Location, category, query string) []Location {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Location, 0, len(locs))
	for _, l := range locs {
		if !MatchesCategory(l, category) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(l.Name), q) &&
			!strings.Contains(strings.ToLower(l.Description), q) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func MatchesCategory(l Location, category string) bool {
	return category == "" || category == CategoryAll || l.Category == category
}

// Categories returns the browse tabs with the number of locations in each.
func Categories(locs []Location) []Category {
	out := make([]Category, len(categoryNames))
	for i, c := range categoryNames {
		c.Count = len(Filter(locs, c.ID, ""))
		out[i] = c
	}
	return out
}
