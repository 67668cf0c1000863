package main

import (
	"fmt"
	"text/tabwriter"

	"backend-discoverudupi/internal/favorite"

	"github.com/spf13/cobra"
)

func newFavoritesCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage saved locations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			favs, err := a.api.ListFavorites(cmd.Context())
			if err != nil {
				return err
			}
			if len(favs) == 0 {
				fmt.Fprintln(a.out, "No favorites yet")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tRATING\tSAVED")
			for _, f := range favs {
				fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\n", f.LocationID, f.Location.Name, f.Location.AverageRating,
					f.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Save a location, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sync := favorite.NewSynchronizer(a.api, a.notifier)
			userID := ""
			if s := a.api.Session(); s != nil {
				userID = s.User.ID
			}
			if err := sync.SetUser(ctx, userID); err != nil {
				return err
			}
			_, err = sync.Toggle(ctx, id)
			return err
		},
	})
	return cmd
}
