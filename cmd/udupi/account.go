package main

import (
	"fmt"
	"os"
	"path/filepath"

	"backend-discoverudupi/internal/profile"
	"backend-discoverudupi/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newLoginCmd(a *cli) *cobra.Command {
	var (
		email, password string
		google          bool
		next            string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or print a Google sign-in link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := a.openFacade(ctx)
			if err != nil {
				return err
			}
			defer f.Close()

			if google {
				u, err := f.OAuthURL(ctx, "google", next)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Open this link to continue:\n%s\n", u)
				return nil
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			s, err := f.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			return a.sessions.Save(&s)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&google, "google", false, "sign in with Google instead")
	cmd.Flags().StringVar(&next, "next", "/", "page to open after Google sign-in")
	return cmd
}

func newSignupCmd(a *cli) *cobra.Command {
	var email, password, fullName string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := a.openFacade(ctx)
			if err != nil {
				return err
			}
			defer f.Close()

			resp, err := f.SignUp(ctx, email, password, fullName)
			if err != nil {
				return err
			}
			return a.sessions.Save(resp.Session)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&fullName, "name", "", "your full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := a.session(); err != nil {
				return err
			}
			f, err := a.openFacade(ctx)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SignOut(ctx); err != nil {
				return err
			}
			return a.sessions.Clear()
		},
	}
}

func newWhoamiCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			f, err := a.openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer f.Close()

			snap := f.Snapshot()
			if !snap.IsAuthenticated {
				return errNotSignedIn
			}
			fmt.Fprintf(a.out, "%s <%s>\n", snap.User.FullName, snap.User.Email)
			if p := snap.Profile; p != nil {
				if p.Username != "" {
					fmt.Fprintf(a.out, "@%s\n", p.Username)
				}
				if p.Bio != "" {
					fmt.Fprintln(a.out, p.Bio)
				}
				if p.IsLocalGuide {
					fmt.Fprintln(a.out, "Local guide")
				}
			}
			return nil
		},
	}
}

func newProfileCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}
	cmd.AddCommand(newProfileUpdateCmd(a))
	return cmd
}

// changed returns v when the named flag was set on the command line.
func changed(flags *pflag.FlagSet, name string, v *string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return v
}

func newProfileUpdateCmd(a *cli) *cobra.Command {
	var username, fullName, bio, avatarURL, avatarFile string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := a.session(); err != nil {
				return err
			}
			flags := cmd.Flags()
			u := profile.Update{
				Username:  changed(flags, "username", &username),
				FullName:  changed(flags, "name", &fullName),
				Bio:       changed(flags, "bio", &bio),
				AvatarURL: changed(flags, "avatar-url", &avatarURL),
			}
			if avatarFile != "" {
				file, err := os.Open(avatarFile)
				if err != nil {
					return err
				}
				obj, err := a.api.UploadImage(ctx, filepath.Base(avatarFile), storage.KindAvatar, file)
				file.Close()
				if err != nil {
					return fmt.Errorf("upload avatar: %w", err)
				}
				u.AvatarURL = &obj.URL
			}
			if u.Empty() {
				return fmt.Errorf("nothing to update")
			}

			f, err := a.openFacade(ctx)
			if err != nil {
				return err
			}
			defer f.Close()
			return f.UpdateProfile(ctx, u)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "public username")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "avatar image URL")
	cmd.Flags().StringVar(&avatarFile, "avatar-file", "", "upload this image as the avatar")
	return cmd
}
