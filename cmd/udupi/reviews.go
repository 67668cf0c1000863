package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"backend-discoverudupi/internal/review"

	"github.com/spf13/cobra"
)

// newBoard builds an empty board for the location named by arg.
func (a *cli) newBoard(arg string) (*review.Board, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	identity := review.IdentityFunc(func() (review.Author, bool) {
		s := a.api.Session()
		if s == nil {
			return review.Author{}, false
		}
		return review.Author{UserID: s.User.ID, Name: s.User.FullName, Avatar: s.User.AvatarURL}, true
	})
	return review.NewBoard(id, a.api, identity, a.notifier), nil
}

// loadBoard is newBoard followed by a fetch of the location's reviews.
func (a *cli) loadBoard(cmd *cobra.Command, arg string) (*review.Board, error) {
	b, err := a.newBoard(arg)
	if err != nil {
		return nil, err
	}
	if err := b.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return b, nil
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func newReviewsCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read and write location reviews",
	}
	cmd.AddCommand(newReviewsListCmd(a), newReviewsStatsCmd(a), newReviewsSubmitCmd(a), newReviewsVoteCmd(a))
	return cmd
}

func newReviewsListCmd(a *cli) *cobra.Command {
	var (
		sort   string
		rating int
	)
	cmd := &cobra.Command{
		Use:   "list <location-id>",
		Short: "List reviews of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := review.ParseSortOrder(sort)
			if err != nil {
				return err
			}
			if rating != 0 && (rating < 1 || rating > 5) {
				return review.ErrInvalidRatingFilter
			}
			b, err := a.loadBoard(cmd, args[0])
			if err != nil {
				return err
			}
			rs := b.View(order, rating)
			if len(rs) == 0 {
				fmt.Fprintln(a.out, "No reviews yet")
				return nil
			}
			for _, r := range rs {
				fmt.Fprintf(a.out, "%s  %s  %s\n", stars(r.Rating), r.Title, r.UserName)
				fmt.Fprintf(a.out, "  %s\n", r.Comment)
				fmt.Fprintf(a.out, "  id %s, %d found helpful\n\n", r.ID, r.HelpfulCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "newest", "newest, rating or helpful")
	cmd.Flags().IntVar(&rating, "rating", 0, "only reviews with this many stars")
	return cmd
}

func newReviewsStatsCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <location-id>",
		Short: "Show the rating breakdown of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.api.ReviewStats(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%.1f average from %d reviews\n", st.Average, st.Total)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, bucket := range st.Histogram {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f%%\n", bucket.Rating, stars(bucket.Rating), bucket.Count, bucket.Percentage)
			}
			return tw.Flush()
		},
	}
}

func newReviewsSubmitCmd(a *cli) *cobra.Command {
	var s review.Submission
	cmd := &cobra.Command{
		Use:   "submit <location-id>",
		Short: "Write a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.newBoard(args[0])
			if err != nil {
				return err
			}
			e, err := b.Submit(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "review %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&s.Rating, "rating", 0, "stars from 1 to 5")
	cmd.Flags().StringVar(&s.Title, "title", "", "review title")
	cmd.Flags().StringVar(&s.Comment, "comment", "", "review text")
	cmd.Flags().StringVar(&s.VisitDate, "visit-date", "", "when you visited (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&s.Images, "image", nil, "image URL, repeatable")
	return cmd
}

// The vote is kept by this process only; the count shown is what this
// client would display.
func newReviewsVoteCmd(a *cli) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "vote <location-id> <review-id>",
		Short: "Mark a review helpful (or not) and show the resulting count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.loadBoard(cmd, args[0])
			if err != nil {
				return err
			}
			v := review.VoteUp
			if down {
				v = review.VoteDown
			}
			n, err := b.Vote(args[1], v)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d found helpful\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "vote not helpful")
	return cmd
}
