package cli

import (
	"context"

	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

func (a *App) newContainerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Display commands working with containers",
	}

	cmd.AddCommand(a.newContainerStartCommand())
	cmd.AddCommand(a.newNamedContainerCommand("stop", "Stops container", "Container is stopped", (*machines.Containers).Stop))
	cmd.AddCommand(a.newNamedContainerCommand("remove", "Removes container", "Container removed", (*machines.Containers).Remove))
	cmd.AddCommand(a.newNamedContainerCommand("reboot", "Reboots container", "Container is rebooted", (*machines.Containers).Reboot))
	cmd.AddCommand(a.newContainerSaveCommand())
	cmd.AddCommand(a.newContainerListCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "token",
		Short: "Display a registry token for your containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			resp, err := m.Containers().Token(cmd.Context())
			if err != nil {
				return err
			}

			return a.printer.Print(resp.Value())
		},
	})

	return cmd
}

func (a *App) newContainerStartCommand() *cobra.Command {
	var spec machines.ContainerSpec

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := spec.Validate(); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, ui.Task{Progress: "Starting container", Success: "Container is started."},
				func(ctx context.Context) (machines.Response, error) {
					return m.Containers().Start(ctx, spec)
				})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&spec.Name, "name", "n", "", "[blink/]name of the container")
	f.StringVarP(&spec.Image, "image", "i", "", "Image of container")
	f.StringArrayVarP(&spec.Ports, "publish", "p", nil, "Publish a container's port(s) to the host")
	f.BoolVarP(&spec.PublishAllPorts, "publish-all", "P", false, "Publish all exposed ports to random ports")
	f.StringVarP(&spec.User, "user", "u", "", "Username")
	f.StringArrayVarP(&spec.Env, "env", "e", nil, "Set environment variables")
	f.StringArrayVarP(&spec.Volumes, "volume", "v", nil, "Bind mount a volume (source_path:target_path)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func (a *App) newNamedContainerCommand(
	use, short, done string,
	op func(c *machines.Containers, ctx context.Context, name string) (machines.Response, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := machines.ValidateContainerName(args[0]); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			if _, err := op(m.Containers(), cmd.Context(), args[0]); err != nil {
				return err
			}

			a.printer.Line(done)

			return nil
		},
	}
}

func (a *App) newContainerSaveCommand() *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Saves container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := machines.ValidateContainerName(args[0]); err != nil {
				return err
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, ui.Task{Progress: "Saving container", Success: "Container is saved", Failure: "Failed to save container"},
				func(ctx context.Context) (machines.Response, error) {
					return m.Containers().Save(ctx, args[0], image)
				})
		},
	}

	cmd.Flags().StringVarP(&image, "image", "i", "", "New image name")

	return cmd
}

func (a *App) newContainerListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listContainers(cmd.Context(), all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show all containers (default shows just running)")

	return cmd
}

func (a *App) listContainers(ctx context.Context, all bool) error {
	m, err := a.machineControl()
	if err != nil {
		return err
	}

	resp, err := m.Containers().List(ctx, all)
	if err != nil {
		return err
	}

	return a.printer.Print(resp.Get("containers").Value())
}
