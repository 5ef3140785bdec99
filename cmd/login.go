package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/api"
	"github.com/Tiliavir/punch/internal/identity"
	"github.com/Tiliavir/punch/internal/logging"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your identity provider",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutReturnTo string

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	logoutCmd.Flags().StringVar(&logoutReturnTo, "return-to", "", "URL the provider's logout page should return to")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ac, err := a.client.FetchAuthConfig(ctx)
	if err != nil {
		return err
	}
	p, err := identity.NewProvider(ac,
		identity.WithOutput(cmd.OutOrStdout()),
		identity.WithLogger(logging.Component(a.log, "identity")),
	)
	if err != nil {
		return err
	}

	res, err := p.Login(ctx)
	if err != nil {
		return err
	}
	if err := a.store.SetSession(res.AccessToken, res.IDToken, res.ExpiresIn, res.User); err != nil {
		return storageErr(err)
	}

	a.out.Line("Signed in as %s.", res.User.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return storageErr(err)
	}
	a.out.Line("Signed out.")

	// The provider's browser session is separate; point the user at its
	// logout page when the configuration is reachable.
	ac, err := a.client.FetchAuthConfig(cmd.Context())
	if err != nil {
		a.log.WithError(err).Debug("no provider logout URL")
		return nil
	}
	p, err := identity.NewProvider(ac)
	if err != nil {
		return nil
	}
	a.out.Muted("To also end the browser session, open: " + p.LogoutURL(logoutReturnTo))
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sess, ok := a.store.Current()
	if !ok {
		return fmt.Errorf("%w: not signed in", api.ErrSessionExpired)
	}

	name, email := "unknown", "unknown"
	if sess.User != nil {
		if n := sess.User.DisplayName(); n != "" {
			name = n
		}
		if sess.User.Email != "" {
			email = sess.User.Email
		}
	}
	expires := time.UnixMilli(sess.ExpiresAt).In(a.loc)
	a.out.Line("Name:    %s", name)
	a.out.Line("Email:   %s", email)
	a.out.Line("Expires: %s", expires.Format("2006-01-02 15:04"))
	return nil
}
