package cli

import (
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// Spinner texts shared by more than one command.
var (
	startMachineTask = ui.Task{Progress: "Starting machine", Success: "Machine is started", Failure: "Failed to start machine"}
	stopMachineTask  = ui.Task{Progress: "Stopping machine", Success: "Machine is stopped.", Failure: "Failed to stop machine."}
)

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "build",
		Short:         "build is a command line interface for your dev environments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log requests and responses to stderr")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Hide progress output")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "json", "Listing format: json or yaml")

	root.AddCommand(a.newMachineCommand())
	root.AddCommand(a.newBalanceCommand())
	root.AddCommand(a.newSSHKeyCommand())
	root.AddCommand(a.newContainerCommand())
	root.AddCommand(a.newDeviceCommand())
	root.AddCommand(a.newImagesCommand())
	root.AddCommand(a.newUpCommand())
	root.AddCommand(a.newDownCommand())
	root.AddCommand(a.newPSCommand())
	root.AddCommand(a.newSSHCommand())
	root.AddCommand(a.newMOSHCommand())
	root.AddCommand(a.newSSHCopyIDCommand())

	return root
}
