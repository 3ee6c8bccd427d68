package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

// forcedCommandPrefix is what the machine puts in front of every
// authorized key; it is noise when listing.
const forcedCommandPrefix = `command="python3 /blink/scripts/command.py" `

func (a *App) newSSHKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh-key",
		Short: "Display commands for managing ssh keys on dev machine",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add KEY",
		Short: "Add ssh key to dev machine authorization keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, ui.Task{Progress: "Adding key", Success: "Key is added.", Failure: "Failed to add key"},
				func(ctx context.Context) (machines.Response, error) {
					return m.SSHKeys().Add(ctx, args[0])
				})
		},
	})
	cmd.AddCommand(a.newSSHKeyRemoveCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List keys in authorization keys file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			keys, err := ui.Spin(cmd.Context(), a.spinner, ui.Task{Progress: "Retrieving keys", Failure: "Failed to retrieve keys"},
				m.SSHKeys().List)
			if err != nil {
				return err
			}

			printKeys(a, keys)

			return nil
		},
	})

	return cmd
}

func (a *App) newSSHKeyRemoveCommand() *cobra.Command {
	var number uint

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove key by line number from authorization keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			return a.spin(cmd, ui.Task{Progress: "Removing key", Success: "Key is removed", Failure: "Failed to remove key"},
				func(ctx context.Context) (machines.Response, error) {
					return m.SSHKeys().Remove(ctx, number)
				})
		},
	}

	cmd.Flags().UintVarP(&number, "number", "n", 0, "Number of ssh key, as shown by list")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

// printKeys numbers authorized_keys lines from 1.
func printKeys(a *App, keys string) {
	scanner := bufio.NewScanner(strings.NewReader(keys))
	for idx := 1; scanner.Scan(); idx++ {
		line := strings.Replace(scanner.Text(), forcedCommandPrefix, "", 1)
		a.printer.Line(fmt.Sprintf("%d: %s", idx, line))
	}
}
