package cli

import (
	"log/slog"

	"github.com/alexjbarnes/build-cli/internal/auth"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

func (a *App) newDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Display commands for authentication of this device",
	}

	cmd.AddCommand(a.newDeviceAuthenticateCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "deauthenticate",
		Short: "Deauthenticate this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.tokenProvider()
			if err != nil {
				return err
			}

			if err := tokens.DeleteToken(); err != nil {
				return err
			}

			a.printer.Line("Token removed")

			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "token",
		Short: "Display current access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.tokenProvider()
			if err != nil {
				return err
			}

			token := tokens.AccessToken()
			if token == "" {
				token = "No token"
			}

			a.printer.Line(token)

			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.tokenProvider()
			if err != nil {
				return err
			}

			return a.spinner.Do(cmd.Context(), ui.Task{
				Progress: "Refreshing token",
				Success:  "Token is refreshed",
				Failure:  "Failed to refresh token",
			}, tokens.Refresh)
		},
	})

	return cmd
}

func (a *App) newDeviceAuthenticateCommand() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Authenticate this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.tokenProvider()
			if err != nil {
				return err
			}

			flow := &auth.DeviceFlow{
				Client:   a.auth0Client(),
				Tokens:   tokens,
				Attempts: a.cfg.DevicePollAttempts,
				Interval: a.cfg.DevicePollInterval,
				Out:      a.stdout,
				Logger:   a.logger,
				Wait:     a.wait,
			}
			if open {
				flow.Open = a.openBrowser
			}

			state, err := flow.Run(cmd.Context())
			a.logger.Debug("device flow finished", slog.String("state", state.String()))
			if err != nil {
				return err
			}

			a.printer.Line("Device is authenticated")

			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the verification URL in a browser")

	return cmd
}
