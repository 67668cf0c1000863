package review

import (
	"sort"
	"strings"
)

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortRating  SortOrder = "rating"
	SortHelpful SortOrder = "helpful"
)

// ParseSortOrder maps a query value to a SortOrder; empty means newest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortRating:
		return SortRating, nil
	case SortHelpful:
		return SortHelpful, nil
	}
	return "", ErrInvalidSortOrder
}

type Bucket struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Stats struct {
	Average   float64  `json:"average"`
	Total     int      `json:"total"`
	Histogram []Bucket `json:"histogram"`
}

func AverageRating(rs []Review) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rs {
		sum += r.Rating
	}
	return float64(sum) / float64(len(rs))
}

// Histogram returns one bucket per star rating, 5 first.
func Histogram(rs []Review) []Bucket {
	counts := [6]int{}
	for _, r := range rs {
		if r.Rating >= 1 && r.Rating <= 5 {
			counts[r.Rating]++
		}
	}
	out := make([]Bucket, 0, 5)
	for rating := 5; rating >= 1; rating-- {
		b := Bucket{Rating: rating, Count: counts[rating]}
		if len(rs) > 0 {
			b.Percentage = float64(b.Count) / float64(len(rs)) * 100
		}
		out = append(out, b)
	}
	return out
}

func Summarize(rs []Review) Stats {
	return Stats{Average: AverageRating(rs), Total: len(rs), Histogram: Histogram(rs)}
}

// StatsFromCounts builds the same summary from per-rating counts, as
// returned by a GROUP BY over the reviews table.
func StatsFromCounts(counts map[int]int) Stats {
	var st Stats
	sum := 0
	for rating := 1; rating <= 5; rating++ {
		st.Total += counts[rating]
		sum += rating * counts[rating]
	}
	if st.Total > 0 {
		st.Average = float64(sum) / float64(st.Total)
	}
	st.Histogram = make([]Bucket, 0, 5)
	for rating := 5; rating >= 1; rating-- {
		b := Bucket{Rating: rating, Count: counts[rating]}
		if st.Total > 0 {
			b.Percentage = float64(b.Count) / float64(st.Total) * 100
		}
		st.Histogram = append(st.Histogram, b)
	}
	return st
}

// Arrange filters rs to an exact rating (0 keeps all) and stable-sorts the
// result by order. rs is not modified.
func Arrange(rs []Review, order SortOrder, rating int) []Review {
	out := make([]Review, 0, len(rs))
	for _, r := range rs {
		if rating == 0 || r.Rating == rating {
			out = append(out, r)
		}
	}
	var less func(a, b Review) bool
	switch order {
	case SortRating:
		less = func(a, b Review) bool { return a.Rating > b.Rating }
	case SortHelpful:
		less = func(a, b Review) bool { return a.HelpfulCount > b.HelpfulCount }
	default:
		less = func(a, b Review) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
