package cli

import (
	"context"

	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

func (a *App) newUpCommand() *cobra.Command {
	var (
		image   string
		publish []string
	)

	cmd := &cobra.Command{
		Use:   "up [flags] [blink/]NAME",
		Short: "Starts container and machine if needed",
		Long: "Starts container and machine if needed. Use the blink/ prefix to start\n" +
			"saved containers.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := machines.ContainerSpec{Name: args[0], Image: image, Ports: publish}
			if spec.Image == "" {
				spec.Image = spec.Name
			}

			if err := spec.Validate(); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			create := func(ctx context.Context) (machines.Response, error) {
				return ui.Spin(ctx, a.spinner, ui.Task{Progress: "Creating container", Success: "Container is created."},
					func(ctx context.Context) (machines.Response, error) {
						return m.Containers().Start(ctx, spec)
					})
			}

			_, err = machines.WithRecovery(cmd.Context(), create, a.startMachine(m))

			return err
		},
	}

	cmd.Flags().StringVarP(&image, "image", "i", "", "Image of container (default NAME)")
	cmd.Flags().StringArrayVarP(&publish, "publish", "p", nil, "Publish a container's port(s) to the host")

	return cmd
}

func (a *App) newDownCommand() *cobra.Command {
	var skipMachineStop bool

	cmd := &cobra.Command{
		Use:   "down [flags] NAME",
		Short: "Stops container",
		Long: "Stops container. When no running containers are left the machine is\n" +
			"stopped too.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := machines.ValidateContainerName(name); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			err = a.spin(cmd, ui.Task{
				Progress: "Stopping container `" + name + "`",
				Success:  "Container is stopped",
				Failure:  "Failed to stop container",
			}, func(ctx context.Context) (machines.Response, error) {
				return m.Containers().Stop(ctx, name)
			})
			if err != nil || skipMachineStop {
				return err
			}

			resp, err := m.Containers().List(cmd.Context(), false)
			if err != nil {
				return err
			}

			if running := resp.Get("containers"); !running.IsArray() || len(running.Array()) > 0 {
				return nil
			}

			return a.spin(cmd, ui.Task{
				Progress: "No running containers left. Stopping machine...",
				Success:  "Machine is stopped",
				Failure:  "Failed to stop machine",
			}, m.Stop)
		},
	}

	cmd.Flags().BoolVarP(&skipMachineStop, "skip-machine-auto-stop", "s", false, "Skip machine stop if no containers left")

	return cmd
}

func (a *App) newPSCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List running containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listContainers(cmd.Context(), false)
		},
	}
}

func (a *App) newBalanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "balance",
		Short:  "Display commands for retrieving your account balance",
		Hidden: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Retrieve your account balance",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printer.Line(" ¯ \\_(ツ)_/¯")
		},
	})

	return cmd
}
