package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) credentials(cmd *cobra.Command, username string) (string, string, error) {
	w := cmd.ErrOrStderr()
	if username == "" {
		var err error
		if username, err = GetSimpleText(a.in, "Username", w); err != nil {
			return "", "", err
		}
	}
	password, err := GetPassword(a.in, w)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func newRegisterCommand(a *App, p *printer) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := a.credentials(cmd, username)
			if err != nil {
				return err
			}
			u, err := a.api.Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), u, func(w io.Writer) {
				fmt.Fprintf(w, "Registered %s (id %s)\n", u.Username, u.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user name (prompted when empty)")
	return cmd
}

func newLoginCommand(a *App, p *printer) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password, err := a.credentials(cmd, username)
			if err != nil {
				return err
			}
			tokens, err := a.api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), username, tokens.AccessToken, tokens.RefreshToken); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "user name (prompted when empty)")
	return cmd
}

func newLogoutCommand(a *App, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the server session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// a session the server already rejects is still cleared locally
			if err := a.api.Logout(cmd.Context()); err != nil && !isAuthError(err) {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *App, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			return p.print(cmd.OutOrStdout(), u, func(w io.Writer) {
				fmt.Fprintf(w, "User:\t%s\nID:\t%s\n", u.Username, u.ID)
			})
		},
	}
}

func isAuthError(err error) bool {
	var apiErr *api.APIError
	return errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrRefreshTokenExpired) ||
		(errors.As(err, &apiErr) && apiErr.Status == 401)
}
