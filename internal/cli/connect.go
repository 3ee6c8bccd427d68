package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alexjbarnes/build-cli/internal/config"
	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/alexjbarnes/build-cli/internal/sshcmd"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

const defaultCopyIdentity = "~/.ssh/id_rsa.pub"

func (a *App) newSSHCommand() *cobra.Command {
	var (
		opts     sshcmd.Options
		identity string
	)

	cmd := &cobra.Command{
		Use:   "ssh [flags] NAME [COMMAND...]",
		Short: "SSH to container",
		Long: "SSH to container. If a command is given it is executed on the container\n" +
			"instead of a login shell.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Container, opts.Command = args[0], args[1:]
			opts.Verbose = a.verbose

			return a.connect(cmd.Context(), identity, func(ctx context.Context, b *sshcmd.Builder) ([]string, error) {
				return b.SSH(ctx, opts)
			})
		},
	}

	f := cmd.Flags()
	f.SetInterspersed(false)
	f.BoolVarP(&opts.Agent, "agent", "A", false, "Enables forwarding of the authentication agent connection")
	f.StringArrayVarP(&opts.LocalForwards, "local", "L", nil, "Forward a local port: port, local:remote or local:host:remote")
	f.StringArrayVarP(&opts.RemoteForwards, "remote", "R", nil, "Forward a remote port: port, remote:local or remote:host:local")
	f.BoolVar(&opts.RefreshIP, "refresh-ip", false, "Ignore the cached machine address")
	f.StringVarP(&identity, "identity", "i", "", "Identity file (default from BUILD_SSH_IDENTITY)")

	return cmd
}

func (a *App) newMOSHCommand() *cobra.Command {
	var (
		opts     sshcmd.Options
		identity string
	)

	cmd := &cobra.Command{
		Use:   "mosh [flags] NAME [COMMAND...]",
		Short: "MOSH to container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Container, opts.Command = args[0], args[1:]

			return a.connect(cmd.Context(), identity, func(ctx context.Context, b *sshcmd.Builder) ([]string, error) {
				return b.MOSH(ctx, opts)
			})
		},
	}

	f := cmd.Flags()
	f.SetInterspersed(false)
	f.BoolVar(&opts.RefreshIP, "refresh-ip", false, "Ignore the cached machine address")
	f.StringVarP(&identity, "identity", "i", "", "Identity file (default from BUILD_SSH_IDENTITY)")

	return cmd
}

func (a *App) connect(ctx context.Context, identity string, build func(context.Context, *sshcmd.Builder) ([]string, error)) error {
	m, err := a.machineControl()
	if err != nil {
		return err
	}

	b := a.sshBuilder(m)
	if identity != "" {
		b.Identity = identity
	}

	argv, err := build(ctx, b)
	if err != nil {
		return err
	}

	return a.handOff(argv)
}

func (a *App) newSSHCopyIDCommand() *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "ssh-copy-id",
		Short: "Add public key to build machine authorized_keys file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandHome(publicKeyPath(identity))
			if err != nil {
				return err
			}

			a.logger.Debug("reading public key", slog.String("path", path))

			key, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("can't read pub key at path: %s: %w", path, err)
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, ui.Task{Progress: "Adding key", Success: "Key is added.", Failure: "Failed to add key"},
				func(ctx context.Context) (machines.Response, error) {
					return m.SSHKeys().Add(ctx, string(key))
				})
		},
	}

	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Identity file (default "+defaultCopyIdentity+")")

	return cmd
}

// publicKeyPath maps an identity flag to the public key file to upload.
func publicKeyPath(identity string) string {
	switch {
	case identity == "":
		return defaultCopyIdentity
	case strings.HasSuffix(identity, ".pub"):
		return identity
	default:
		return identity + ".pub"
	}
}
