package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"backend-discoverudupi/internal/auth"
	"backend-discoverudupi/internal/authstate"
	"backend-discoverudupi/internal/client"
	"backend-discoverudupi/internal/notify"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNotSignedIn = errors.New("not signed in; run `udupi login` first")

// cli is the state shared by every command of one invocation.
type cli struct {
	v        *viper.Viper
	out      io.Writer
	log      *zap.Logger
	notifier notify.Notifier
	api      *client.Client
	sessions *sessionFile
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	app := &cli{v: viper.New(), out: stdout, notifier: notify.NewWriter(stderr)}

	root := &cobra.Command{
		Use:          "udupi",
		Short:        "Explore Udupi from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	app.v.SetEnvPrefix("UDUPI")
	app.v.AutomaticEnv()

	flags := root.PersistentFlags()
	flags.String("api-url", "http://localhost:8080", "base URL of the Discover Udupi API")
	_ = app.v.BindEnv("api_url", "UDUPI_API_URL")
	_ = app.v.BindPFlag("api_url", flags.Lookup("api-url"))

	flags.String("session-file", defaultSessionPath(), "where the signed-in session is kept")
	_ = app.v.BindEnv("session_file", "UDUPI_SESSION_FILE")
	_ = app.v.BindPFlag("session_file", flags.Lookup("session-file"))

	flags.Bool("verbose", false, "log requests to stderr")
	_ = app.v.BindPFlag("verbose", flags.Lookup("verbose"))

	root.AddCommand(
		newLocationsCmd(app),
		newCategoriesCmd(app),
		newNearbyCmd(app),
		newDirectionsCmd(app),
		newShareCmd(app),
		newLoginCmd(app),
		newSignupCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newProfileCmd(app),
		newFavoritesCmd(app),
		newReviewsCmd(app),
		newWatchCmd(app),
	)
	return root
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".udupi-session.json"
	}
	return filepath.Join(dir, "udupi", "session.json")
}

// setup builds the API client and restores the stored session, refreshing
// it first when the access token has expired.
func (a *cli) setup(ctx context.Context) error {
	a.log = zap.NewNop()
	if a.v.GetBool("verbose") {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		a.log = l
	}
	a.api = client.New(a.v.GetString("api_url"), client.WithLogger(a.log))
	a.sessions = &sessionFile{path: a.v.GetString("session_file")}

	s, err := a.sessions.Load()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	a.api.SetSession(s)
	if s.ExpiresAt == 0 || time.Now().Unix() < s.ExpiresAt {
		return nil
	}
	fresh, err := a.api.Refresh(ctx)
	if err != nil {
		a.log.Debug("session refresh failed", zap.Error(err))
		a.api.SetSession(nil)
		return a.sessions.Clear()
	}
	return a.sessions.Save(&fresh)
}

// session returns the stored session or errNotSignedIn.
func (a *cli) session() (*auth.Session, error) {
	s := a.api.Session()
	if s == nil {
		return nil, errNotSignedIn
	}
	return s, nil
}

// openFacade starts an auth façade on the stored session.
func (a *cli) openFacade(ctx context.Context) (*authstate.Facade, error) {
	f := authstate.New(a.api, a.notifier, a.log.Named("auth"))
	if err := f.Open(ctx, a.api.Session()); err != nil {
		return nil, err
	}
	return f, nil
}
