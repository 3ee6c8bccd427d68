package cli

import (
	"net/url"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/giturl"
	"github.com/spf13/cobra"
)

func (a *App) newImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "List and build images",
	}

	cmd.AddCommand(a.newImagesListCommand())
	cmd.AddCommand(a.newImagesBuildCommand())

	return cmd
}

func (a *App) newImagesListCommand() *cobra.Command {
	var (
		all       bool
		reference string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machineControl()
			if err != nil {
				return err
			}

			resp, err := m.Images().List(cmd.Context(), all, reference)
			if err != nil {
				return err
			}

			return a.printer.Print(resp.Value())
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show all images")
	cmd.Flags().StringVar(&reference, "reference", "", "Filter by image reference")

	return cmd
}

func (a *App) newImagesBuildCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "build [NAME] GIT_URL",
		Short: "Build an image on the machine from a git repository",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			gitURL := args[len(args)-1]
			if len(args) == 2 {
				name = args[0]
			}

			if _, err := url.Parse(gitURL); err != nil || gitURL == "" {
				return builderr.Invalid("git url", gitURL, "not a url")
			}

			m, err := a.machineControl()
			if err != nil {
				return err
			}

			argv, err := a.sshBuilder(m).BuildImage(cmd.Context(), name, giturl.Rewrite(gitURL), a.verbose, refresh)
			if err != nil {
				return err
			}

			return a.handOff(argv)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh-ip", false, "Ignore the cached machine address")

	return cmd
}
