package cli

import (
	"context"

	"github.com/alexjbarnes/build-cli/internal/config"
	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/spf13/cobra"
)

func (a *App) newMachineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Display commands for machine management",
	}

	cmd.AddCommand(a.newMachineStartCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stops machine if it is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, stopMachineTask, m.Stop)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Blink machine status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}

			a.printer.Line(status)

			return nil
		},
	})
	cmd.AddCommand(a.newMachineIPCommand())

	return cmd
}

func (a *App) newMachineStartCommand() *cobra.Command {
	var region, size string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Starts blink machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if region == "" {
				region = a.cfg.Region
			}

			if size == "" {
				size = a.cfg.Size
			}

			if err := config.ValidateRegion(region); err != nil {
				return err
			}

			if err := config.ValidateSize(size); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, startMachineTask, func(ctx context.Context) (machines.Response, error) {
				return m.Start(ctx, region, size)
			})
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "Region where machine is started (default from BUILD_REGION)")
	cmd.Flags().StringVarP(&size, "size", "s", "", "Size of the machine (default from BUILD_SIZE)")

	return cmd
}

func (a *App) newMachineIPCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "ip",
		Short: "Blink machine ip address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			ip, err := m.IP(cmd.Context(), refresh)
			if err != nil {
				return err
			}

			a.printer.Line(ip)

			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached address")

	return cmd
}
