package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"backend-discoverudupi/internal/authstate"

	"github.com/spf13/cobra"
)

// watchContext is replaced in tests.
var watchContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newWatchCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow sign-in changes of this account from other devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			ctx, cancel := watchContext(cmd.Context())
			defer cancel()

			f, err := a.openFacade(ctx)
			if err != nil {
				return err
			}
			defer f.Close()

			events, err := a.api.Events(ctx)
			if err != nil {
				return err
			}
			unsubscribe := f.Subscribe(func(s authstate.Snapshot) {
				if s.Loading {
					return
				}
				if !s.IsAuthenticated {
					fmt.Fprintln(a.out, "signed out")
					cancel()
					return
				}
				fmt.Fprintf(a.out, "signed in as %s\n", s.User.Email)
			})
			defer unsubscribe()

			fmt.Fprintln(a.out, "watching for account changes, press Ctrl+C to stop")
			f.Watch(ctx, events)

			if !f.Snapshot().IsAuthenticated {
				return a.sessions.Clear()
			}
			return nil
		},
	}
}
