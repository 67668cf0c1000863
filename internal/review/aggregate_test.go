package review

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ids(rs []Review) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestAverageRating(t *testing.T) {
	if AverageRating(nil) != 0 {
		t.Fatalf("empty list should average 0")
	}
	rs := []Review{{Rating: 5}, {Rating: 4}, {Rating: 3}}
	if got := AverageRating(rs); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestHistogram(t *testing.T) {
	empty := Histogram(nil)
	if len(empty) != 5 {
		t.Fatalf("expected 5 buckets")
	}
	for _, b := range empty {
		if b.Count != 0 || b.Percentage != 0 {
			t.Fatalf("empty histogram should be zero: %+v", b)
		}
	}

	rs := []Review{{Rating: 5}, {Rating: 5}, {Rating: 3}, {Rating: 1}}
	want := []Bucket{
		{Rating: 5, Count: 2, Percentage: 50},
		{Rating: 4, Count: 0, Percentage: 0},
		{Rating: 3, Count: 1, Percentage: 25},
		{Rating: 2, Count: 0, Percentage: 0},
		{Rating: 1, Count: 1, Percentage: 25},
	}
	if diff := cmp.Diff(want, Histogram(rs)); diff != "" {
		t.Fatalf("histogram mismatch (-want +got):\n%s", diff)
	}
}

func TestArrange(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := []Review{
		{ID: "a", Rating: 3, HelpfulCount: 2, CreatedAt: base},
		{ID: "b", Rating: 5, HelpfulCount: 10, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "c", Rating: 1, HelpfulCount: 0, CreatedAt: base.Add(time.Hour)},
	}

	if diff := cmp.Diff([]string{"b", "a", "c"}, ids(Arrange(rs, SortRating, 0))); diff != "" {
		t.Fatalf("rating order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids(Arrange(rs, SortHelpful, 0))); diff != "" {
		t.Fatalf("helpful order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, ids(Arrange(rs, SortNewest, 0))); diff != "" {
		t.Fatalf("newest order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, ids(Arrange(rs, SortNewest, 1))); diff != "" {
		t.Fatalf("rating filter (-want +got):\n%s", diff)
	}
	if rs[0].ID != "a" {
		t.Fatalf("input should not be reordered")
	}
}

func TestArrangeIsStable(t *testing.T) {
	rs := []Review{{ID: "x", Rating: 4}, {ID: "y", Rating: 4}, {ID: "z", Rating: 5}}
	if diff := cmp.Diff([]string{"z", "x", "y"}, ids(Arrange(rs, SortRating, 0))); diff != "" {
		t.Fatalf("ties should keep input order (-want +got):\n%s", diff)
	}
}

func TestParseSortOrder(t *testing.T) {
	for in, want := range map[string]SortOrder{"": SortNewest, "Rating": SortRating, "helpful": SortHelpful} {
		got, err := ParseSortOrder(in)
		if err != nil || got != want {
			t.Fatalf("ParseSortOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSortOrder("oldest"); err != ErrInvalidSortOrder {
		t.Fatalf("expected invalid sort order, got %v", err)
	}
}

func TestSubmissionValidate(t *testing.T) {
	cases := []struct {
		s    Submission
		want error
	}{
		{Submission{Comment: "nice"}, ErrRatingRequired},
		{Submission{Rating: 6, Comment: "nice"}, ErrRatingOutOfRange},
		{Submission{Rating: 4, Comment: "   "}, ErrCommentRequired},
		{Submission{Rating: 4, Comment: "nice", VisitDate: "yesterday"}, ErrInvalidVisitDate},
		{Submission{Rating: 4, Comment: "nice", VisitDate: "2024-03-01"}, nil},
	}
	for _, tc := range cases {
		if err := tc.s.Validate(); err != tc.want {
			t.Fatalf("Validate(%+v) = %v, want %v", tc.s, err, tc.want)
		}
	}
}

func TestStatsFromCountsMatchesSummarize(t *testing.T) {
	rs := []Review{{Rating: 5}, {Rating: 4}, {Rating: 4}, {Rating: 1}}
	counts := map[int]int{}
	for _, r := range rs {
		counts[r.Rating]++
	}
	if diff := cmp.Diff(Summarize(rs), StatsFromCounts(counts)); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	if st := StatsFromCounts(nil); st.Total != 0 || st.Average != 0 || len(st.Histogram) != 5 {
		t.Fatalf("unexpected empty stats %+v", st)
	}
}
