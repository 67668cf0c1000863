package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"backend-discoverudupi/internal/location"

	"github.com/spf13/cobra"
)

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid location id %q", s)
	}
	return id, nil
}

func printLocations(a *cli, locs []location.Location) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tRATING")
	for _, l := range locs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n", l.ID, l.Name, l.Category, l.Rating)
	}
	return tw.Flush()
}

func newLocationsCmd(a *cli) *cobra.Command {
	var category, query string
	cmd := &cobra.Command{
		Use:   "locations [id]",
		Short: "List locations, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				l, err := a.api.Location(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (%s)\n%s\n\nHours:     %s\nBest time: %s\nAddress:   %s\nRating:    %.1f (%d reviews)\n",
					l.Name, l.Category, l.Description, l.Hours, l.BestTime, l.Address, l.Rating, l.Reviews)
				if l.Tips != "" {
					fmt.Fprintf(a.out, "Tip:       %s\n", l.Tips)
				}
				return nil
			}
			locs, err := a.api.Locations(cmd.Context(), category, query)
			if err != nil {
				return err
			}
			return printLocations(a, locs)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&query, "search", "s", "", "match name or description")
	return cmd
}

func newCategoriesCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List browse categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOUNT")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", c.ID, c.Name, c.Count)
			}
			return tw.Flush()
		},
	}
}

func newNearbyCmd(a *cli) *cobra.Command {
	var (
		lat, lng, radius float64
		category         string
	)
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List locations near a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			near, err := a.api.Nearby(cmd.Context(), lat, lng, radius, category)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tDISTANCE")
			for _, n := range near {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f km\n", n.ID, n.Name, n.Category, n.DistanceKm)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&radius, "radius", 10, "search radius in km")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newDirectionsCmd(a *cli) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "directions <id>",
		Short: "Print a maps link to a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := a.api.Directions(cmd.Context(), id, platform)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, u)
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "desktop", "desktop, android or ios")
	return cmd
}

func newShareCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "share <id>",
		Short: "Print a shareable link to a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			link, err := a.api.Share(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s\n%s\n%s\n", link.Title, link.Text, link.URL)
			return nil
		},
	}
}
